package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reconciliationHandler handles HTTP requests related to bank reconciliation sessions.
type reconciliationHandler struct {
	reconService portssvc.ReconciliationSvcFacade
}

func newReconciliationHandler(rs portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{reconService: rs}
}

// registerReconciliationRoutes registers routes related to reconciliation sessions.
func registerReconciliationRoutes(rg *gin.RouterGroup, reconService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconService)

	recon := rg.Group("/reconciliations")
	{
		recon.POST("", h.startSession)
		recon.GET("/:id", h.getSession)
		recon.POST("/:id/statement", h.importStatement)
		recon.POST("/:id/statement/csv", h.importStatementCSV)
		recon.POST("/:id/auto-match", h.autoMatch)
		recon.POST("/:id/matches", h.confirmMatch)
		recon.DELETE("/:id/matches/:groupId", h.unmatch)
		recon.POST("/:id/complete", h.complete)
	}
}

// startSession godoc
// @Summary Start a reconciliation session
// @Description Opens a session for an account and loads its unreconciled posted lines up to the statement date
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   session body dto.StartReconciliationRequest true "Account and statement"
// @Success 201 {object} dto.ReconciliationResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Failure 403 {object} handlers.ErrorResponse "Role lacks reconcile"
// @Failure 404 {object} handlers.ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /reconciliations [post]
func (h *reconciliationHandler) startSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.StartReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	session, err := h.reconService.StartSession(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, logger.With(slog.String("account_id", req.AccountID)), err, "Failed to start reconciliation")
		return
	}

	c.JSON(http.StatusCreated, dto.ToReconciliationResponse(session))
}

// getSession godoc
// @Summary Get a reconciliation session
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 404 {object} handlers.ErrorResponse "Session not found"
// @Security BearerAuth
// @Router /reconciliations/{id} [get]
func (h *reconciliationHandler) getSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	session, err := h.reconService.GetSession(c.Request.Context(), actor, sessionID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("session_id", sessionID)), err, "Failed to retrieve reconciliation")
		return
	}

	c.JSON(http.StatusOK, dto.ToReconciliationResponse(session))
}

// importStatement godoc
// @Summary Import bank statement rows
// @Description Appends the valid rows; rejected rows are listed in errors
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   statement body dto.ImportStatementRequest true "Statement rows"
// @Success 200 {object} dto.ImportStatementResponse
// @Failure 409 {object} handlers.ErrorResponse "Session completed or changed concurrently"
// @Failure 422 {object} handlers.ErrorResponse "No row could be imported"
// @Security BearerAuth
// @Router /reconciliations/{id}/statement [post]
func (h *reconciliationHandler) importStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	var req dto.ImportStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	imported, err := h.reconService.ImportBankStatement(c.Request.Context(), actor, sessionID, req.Rows)
	h.writeImportResult(c, logger.With(slog.String("session_id", sessionID)), imported, err)
}

// importStatementCSV godoc
// @Summary Import a bank statement CSV
// @Description Upload a CSV with a header row naming date, description, reference, debit, credit and balance columns
// @Tags reconciliations
// @Accept  multipart/form-data
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   file formData file true "Statement CSV"
// @Success 200 {object} dto.ImportStatementResponse
// @Failure 400 {object} handlers.ErrorResponse "File missing"
// @Failure 422 {object} handlers.ErrorResponse "No row could be imported"
// @Security BearerAuth
// @Router /reconciliations/{id}/statement/csv [post]
func (h *reconciliationHandler) importStatementCSV(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	header, err := c.FormFile("file")
	if err != nil {
		bindError(c, logger, err)
		return
	}
	file, err := header.Open()
	if err != nil {
		bindError(c, logger, err)
		return
	}
	defer file.Close()

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	imported, err := h.reconService.ImportBankStatementCSV(c.Request.Context(), actor, sessionID, file)
	h.writeImportResult(c, logger.With(slog.String("session_id", sessionID), slog.String("file", header.Filename)), imported, err)
}

// writeImportResult answers 200 whenever at least one row was imported, listing rejected rows next to it.
func (h *reconciliationHandler) writeImportResult(c *gin.Context, logger *slog.Logger, imported []domain.BankTransaction, err error) {
	var importErr *apperrors.ImportError
	if err != nil && !(errors.As(err, &importErr) && len(imported) > 0) {
		respondWithError(c, logger, err, "Failed to import statement")
		return
	}

	resp := dto.ImportStatementResponse{Imported: imported}
	if resp.Imported == nil {
		resp.Imported = []domain.BankTransaction{}
	}
	if importErr != nil {
		resp.Errors = importErr.Rows
	}
	logger.Info("Statement imported", slog.Int("imported", len(resp.Imported)), slog.Int("rejected", len(resp.Errors)))
	c.JSON(http.StatusOK, resp)
}

// autoMatch godoc
// @Summary Propose or apply automatic matches
// @Description Pairs unreconciled bank and ledger transactions with the same amount on opposite sides within the date window
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   apply query bool false "Confirm the proposals"
// @Success 200 {object} dto.AutoMatchResponse
// @Failure 404 {object} handlers.ErrorResponse "Session not found"
// @Failure 409 {object} handlers.ErrorResponse "Session completed or changed concurrently"
// @Security BearerAuth
// @Router /reconciliations/{id}/auto-match [post]
func (h *reconciliationHandler) autoMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	apply := false
	if raw := c.Query("apply"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			bindError(c, logger, err)
			return
		}
		apply = v
	}

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	proposals, err := h.reconService.AutoMatch(c.Request.Context(), actor, sessionID, apply)
	if err != nil {
		respondWithError(c, logger.With(slog.String("session_id", sessionID)), err, "Failed to match transactions")
		return
	}

	c.JSON(http.StatusOK, dto.AutoMatchResponse{Proposals: proposals, Applied: apply})
}

// confirmMatch godoc
// @Summary Confirm a manual match
// @Description Matches one or more bank transactions with one or more ledger transactions as one group
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   match body dto.ConfirmMatchRequest true "Transactions to match"
// @Success 201 {object} dto.ConfirmMatchResponse
// @Failure 400 {object} handlers.ErrorResponse "Unknown transaction ids"
// @Failure 409 {object} handlers.ErrorResponse "A transaction is already matched"
// @Security BearerAuth
// @Router /reconciliations/{id}/matches [post]
func (h *reconciliationHandler) confirmMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	var req dto.ConfirmMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	groupID, err := h.reconService.ConfirmMatch(c.Request.Context(), actor, sessionID, req.BankTransactionIDs, req.LedgerTransactionIDs)
	if err != nil {
		respondWithError(c, logger.With(slog.String("session_id", sessionID)), err, "Failed to confirm match")
		return
	}

	c.JSON(http.StatusCreated, dto.ConfirmMatchResponse{MatchGroupID: groupID})
}

// unmatch godoc
// @Summary Remove a match group
// @Tags reconciliations
// @Param   id path string true "Session ID"
// @Param   groupId path string true "Match group ID"
// @Success 204 "Unmatched"
// @Failure 404 {object} handlers.ErrorResponse "Session or group not found"
// @Security BearerAuth
// @Router /reconciliations/{id}/matches/{groupId} [delete]
func (h *reconciliationHandler) unmatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")
	groupID := c.Param("groupId")

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	if err := h.reconService.Unmatch(c.Request.Context(), actor, sessionID, groupID); err != nil {
		respondWithError(c, logger.With(slog.String("session_id", sessionID), slog.String("match_group_id", groupID)), err, "Failed to remove match")
		return
	}

	c.Status(http.StatusNoContent)
}

// complete godoc
// @Summary Complete a reconciliation
// @Description Marks matched transactions reconciled. Without force, unreconciled items block completion.
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   options body dto.CompleteReconciliationRequest false "Completion options"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 409 {object} handlers.ErrorResponse "Unreconciled items remain or matched lines changed"
// @Security BearerAuth
// @Router /reconciliations/{id}/complete [post]
func (h *reconciliationHandler) complete(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	// The body is optional; an empty one, chunked or not, means force=false.
	var req dto.CompleteReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, logger, err)
		return
	}

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	session, err := h.reconService.CompleteReconciliation(c.Request.Context(), actor, sessionID, req.Force)
	if err != nil {
		respondWithError(c, logger.With(slog.String("session_id", sessionID)), err, "Failed to complete reconciliation")
		return
	}

	logger.Info("Reconciliation completed", slog.String("session_id", sessionID), slog.Bool("forced", req.Force))
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(session))
}
