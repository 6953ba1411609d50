package repositories

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// ReconciliationReader defines read operations for reconciliation sessions.
type ReconciliationReader interface {
	// FindSessionByID loads a session with its bank and ledger transactions.
	FindSessionByID(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error)
}

// ReconciliationWriter defines write operations for reconciliation sessions.
// Every write is guarded by the session version; a mismatch returns ErrConflict.
type ReconciliationWriter interface {
	// SaveSession persists a new session and its initial ledger transactions.
	SaveSession(ctx context.Context, session domain.ReconciliationSession) error

	// UpdateSession stores the session's transactions and match state and bumps the version.
	UpdateSession(ctx context.Context, session domain.ReconciliationSession, expectedVersion int64) error

	// CompleteSession stores a completed session and claims its Reconciled ledger lines.
	// If any of those lines no longer belongs to a Posted entry, or was claimed by another
	// session, nothing is written and *apperrors.StaleMatchError is returned.
	CompleteSession(ctx context.Context, session domain.ReconciliationSession, expectedVersion int64) error
}

// ReconciliationRepositoryFacade combines the reconciliation repository interfaces.
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
}
