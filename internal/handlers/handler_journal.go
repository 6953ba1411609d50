package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(journalService portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{
		journalService: journalService,
	}
}

// registerJournalRoutes registers journal specific routes
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	journals := rg.Group("/journals")
	{
		journals.POST("", h.createDraftEntry)
		journals.GET("", h.listEntries)
		journals.GET("/:id", h.getEntry)
		journals.PUT("/:id", h.updateDraftEntry)
		journals.DELETE("/:id", h.deleteDraftEntry)
		journals.POST("/:id/post", h.postEntry)
		journals.POST("/:id/reverse", h.reverseEntry)
	}
}

// actorFromRequest returns the authenticated actor or answers 401.
func actorFromRequest(c *gin.Context, logger *slog.Logger) (domain.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(c)
	if !ok || actor.UserID == "" {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return domain.Actor{}, false
	}
	return actor, true
}

// createDraftEntry godoc
// @Summary Create a draft journal entry
// @Description Validates and stores a new entry in DRAFT status. Drafts may be unbalanced.
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateJournalEntryRequest true "Entry header and lines"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request or validation violations"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 403 {object} handlers.ErrorResponse "Role lacks create_draft"
// @Failure 409 {object} handlers.ErrorResponse "Duplicate reference"
// @Failure 500 {object} handlers.ErrorResponse "Failed to create entry"
// @Security BearerAuth
// @Router /journals [post]
func (h *journalHandler) createDraftEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.CreateDraftEntry(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create entry")
		return
	}

	logger.Info("Draft entry created", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries
// @Description Lists entries newest first with keyset pagination
// @Tags journals
// @Produce  json
// @Param   status query string false "DRAFT, POSTED or VOID"
// @Param   from query string false "Earliest entry date (YYYY-MM-DD)"
// @Param   to query string false "Latest entry date (YYYY-MM-DD)"
// @Param   limit query int false "Page size (default 20, max 100)"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListJournalEntriesResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 500 {object} handlers.ErrorResponse "Failed to list entries"
// @Security BearerAuth
// @Router /journals [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListJournalEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	resp, err := h.journalService.ListEntries(c.Request.Context(), actor, params)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list entries")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getEntry godoc
// @Summary Get a journal entry
// @Description Retrieves an entry with its lines
// @Tags journals
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Entry not found"
// @Failure 500 {object} handlers.ErrorResponse "Failed to retrieve entry"
// @Security BearerAuth
// @Router /journals/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.GetEntryByID(c.Request.Context(), actor, entryID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("entry_id", entryID)), err, "Failed to retrieve entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// updateDraftEntry godoc
// @Summary Replace a draft entry
// @Description Replaces the header and lines of a DRAFT entry. version must be the version last read.
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   entry body dto.UpdateJournalEntryRequest true "New header and lines"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request or validation violations"
// @Failure 404 {object} handlers.ErrorResponse "Entry not found"
// @Failure 409 {object} handlers.ErrorResponse "Entry is not a draft or was changed concurrently"
// @Security BearerAuth
// @Router /journals/{id} [put]
func (h *journalHandler) updateDraftEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	var req dto.UpdateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.UpdateDraftEntry(c.Request.Context(), actor, entryID, req)
	if err != nil {
		respondWithError(c, logger.With(slog.String("entry_id", entryID)), err, "Failed to update entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// deleteDraftEntry godoc
// @Summary Delete a draft entry
// @Tags journals
// @Param   id path string true "Entry ID"
// @Success 204 "Deleted"
// @Failure 404 {object} handlers.ErrorResponse "Entry not found"
// @Failure 409 {object} handlers.ErrorResponse "Entry is not a draft"
// @Security BearerAuth
// @Router /journals/{id} [delete]
func (h *journalHandler) deleteDraftEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	if err := h.journalService.DeleteDraftEntry(c.Request.Context(), actor, entryID); err != nil {
		respondWithError(c, logger.With(slog.String("entry_id", entryID)), err, "Failed to delete entry")
		return
	}

	c.Status(http.StatusNoContent)
}

// postEntry godoc
// @Summary Post a draft entry
// @Description Validates the entry, marks it POSTED and applies its balance changes atomically
// @Tags journals
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 400 {object} handlers.ErrorResponse "Entry failed validation"
// @Failure 403 {object} handlers.ErrorResponse "Role lacks post"
// @Failure 404 {object} handlers.ErrorResponse "Entry not found"
// @Failure 409 {object} handlers.ErrorResponse "Entry already posted or void"
// @Failure 500 {object} handlers.ErrorResponse "Failed to post entry"
// @Security BearerAuth
// @Router /journals/{id}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.PostEntry(c.Request.Context(), actor, entryID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("entry_id", entryID)), err, "Failed to post entry")
		return
	}

	logger.Info("Entry posted", slog.String("entry_id", entryID))
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Reverse a posted entry
// @Description Voids the entry and posts a reversal with every line swapped
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   reversal body dto.ReverseJournalEntryRequest true "Reason for the reversal"
// @Success 201 {object} dto.JournalEntryResponse "The reversal entry"
// @Failure 400 {object} handlers.ErrorResponse "Reason missing"
// @Failure 403 {object} handlers.ErrorResponse "Role lacks reverse"
// @Failure 404 {object} handlers.ErrorResponse "Entry not found"
// @Failure 409 {object} handlers.ErrorResponse "Entry is not posted"
// @Security BearerAuth
// @Router /journals/{id}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	var req dto.ReverseJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	actor, ok := actorFromRequest(c, logger)
	if !ok {
		return
	}

	reversal, err := h.journalService.ReverseEntry(c.Request.Context(), actor, entryID, req.Reason)
	if err != nil {
		respondWithError(c, logger.With(slog.String("entry_id", entryID)), err, "Failed to reverse entry")
		return
	}

	logger.Info("Entry reversed", slog.String("entry_id", entryID), slog.String("reversal_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(reversal))
}
