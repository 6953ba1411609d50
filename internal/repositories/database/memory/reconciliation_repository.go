package memory

import (
	"context"
	"fmt"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

// ReconciliationRepository keeps reconciliation sessions.
type ReconciliationRepository struct {
	store *Store
}

var _ portsrepo.ReconciliationRepositoryFacade = (*ReconciliationRepository)(nil)

// SaveSession persists a new session.
func (r *ReconciliationRepository) SaveSession(_ context.Context, session domain.ReconciliationSession) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.SessionID]; exists {
		return fmt.Errorf("%w: reconciliation session with ID %s already exists", apperrors.ErrDuplicate, session.SessionID)
	}
	s.sessions[session.SessionID] = cloneSession(session)
	return nil
}

// UpdateSession stores the session if it is still at expectedVersion.
func (r *ReconciliationRepository) UpdateSession(_ context.Context, session domain.ReconciliationSession, expectedVersion int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessionAt(session.SessionID, expectedVersion); err != nil {
		return err
	}
	s.sessions[session.SessionID] = cloneSession(session)
	return nil
}

// CompleteSession stores a completed session and claims its Reconciled ledger lines.
func (r *ReconciliationRepository) CompleteSession(_ context.Context, session domain.ReconciliationSession, expectedVersion int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessionAt(session.SessionID, expectedVersion); err != nil {
		return err
	}

	var stale []string
	var claim []string
	for _, t := range session.LedgerTransactions {
		if t.Status != domain.Reconciled {
			continue
		}
		if !s.linePosted(t.LedgerTransactionID) {
			stale = append(stale, t.LedgerTransactionID)
			continue
		}
		if owner, claimed := s.reconciled[t.LedgerTransactionID]; claimed && owner != session.SessionID {
			stale = append(stale, t.LedgerTransactionID)
			continue
		}
		claim = append(claim, t.LedgerTransactionID)
	}
	if len(stale) > 0 {
		return &apperrors.StaleMatchError{SessionID: session.SessionID, LedgerTransactionIDs: stale}
	}

	for _, lineID := range claim {
		s.reconciled[lineID] = session.SessionID
	}
	s.sessions[session.SessionID] = cloneSession(session)
	return nil
}

// FindSessionByID loads a session with its transactions.
func (r *ReconciliationRepository) FindSessionByID(_ context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("reconciliation session " + sessionID)
	}
	out := cloneSession(session)
	return &out, nil
}

func (s *Store) sessionAt(sessionID string, expectedVersion int64) error {
	stored, ok := s.sessions[sessionID]
	if !ok {
		return apperrors.NewNotFoundError("reconciliation session " + sessionID)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: session %s is at version %d, not %d", apperrors.ErrConflict, sessionID, stored.Version, expectedVersion)
	}
	return nil
}

func (s *Store) linePosted(lineID string) bool {
	entryID, ok := s.lineEntry[lineID]
	if !ok {
		return false
	}
	return s.entries[entryID].Status == domain.Posted
}
