package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string                `json:"error"`
	Violations []apperrors.Violation `json:"violations,omitempty"`
	Rows       []apperrors.RowError  `json:"rows,omitempty"`
	Unmatched  *unmatchedCounts      `json:"unmatched,omitempty"`
	Stale      []string              `json:"staleLedgerTransactionIDs,omitempty"`
}

type unmatchedCounts struct {
	Bank   int `json:"bank"`
	Ledger int `json:"ledger"`
}

// respondWithError maps a service error to its HTTP status and logs it.
// Client errors are logged at warn, everything else at error with a generic message.
func respondWithError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var (
		validationErr *apperrors.ValidationError
		importErr     *apperrors.ImportError
		incompleteErr *apperrors.IncompleteReconciliationError
		staleErr      *apperrors.StaleMatchError
	)

	status := http.StatusInternalServerError
	body := ErrorResponse{Error: fallback}

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		body = ErrorResponse{Error: "Validation failed", Violations: validationErr.Violations}
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
		body = ErrorResponse{Error: err.Error()}
	case errors.As(err, &importErr):
		status = http.StatusUnprocessableEntity
		body = ErrorResponse{Error: "No statement rows could be imported", Rows: importErr.Rows}
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
		body = ErrorResponse{Error: "Forbidden"}
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
		body = ErrorResponse{Error: err.Error()}
	case errors.As(err, &incompleteErr):
		status = http.StatusConflict
		body = ErrorResponse{
			Error:     err.Error(),
			Unmatched: &unmatchedCounts{Bank: incompleteErr.UnmatchedBank, Ledger: incompleteErr.UnmatchedLedger},
		}
	case errors.As(err, &staleErr):
		status = http.StatusConflict
		body = ErrorResponse{Error: err.Error(), Stale: staleErr.LedgerTransactionIDs}
	case errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrDuplicate):
		status = http.StatusConflict
		body = ErrorResponse{Error: err.Error()}
	}

	if status == http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()))
	} else {
		logger.Warn("Request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}
	c.JSON(status, body)
}

// bindError answers a request whose body or query could not be bound.
func bindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
}
