package services

import (
	"context"
	"io"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/utils/statement"
)

// ReconciliationReaderSvc defines read operations for reconciliation sessions.
type ReconciliationReaderSvc interface {
	// GetSession retrieves a session with its transactions.
	GetSession(ctx context.Context, actor domain.Actor, sessionID string) (*domain.ReconciliationSession, error)
}

// ReconciliationWriterSvc defines the operations of a reconciliation session.
type ReconciliationWriterSvc interface {
	// StartSession opens a session and loads the account's unreconciled ledger lines.
	StartSession(ctx context.Context, actor domain.Actor, req dto.StartReconciliationRequest) (*domain.ReconciliationSession, error)

	// ImportBankStatement converts and appends statement rows. Valid rows are stored even
	// when others fail; failures come back as *apperrors.ImportError next to the imported rows.
	ImportBankStatement(ctx context.Context, actor domain.Actor, sessionID string, rows []statement.RawRow) ([]domain.BankTransaction, error)

	// ImportBankStatementCSV reads a statement CSV and imports its rows.
	ImportBankStatementCSV(ctx context.Context, actor domain.Actor, sessionID string, r io.Reader) ([]domain.BankTransaction, error)

	// AutoMatch proposes matches for the session. With apply the proposals are confirmed.
	AutoMatch(ctx context.Context, actor domain.Actor, sessionID string, apply bool) ([]domain.MatchProposal, error)

	// ConfirmMatch matches the selected transactions as one group and returns the group id.
	ConfirmMatch(ctx context.Context, actor domain.Actor, sessionID string, bankIDs, ledgerIDs []string) (string, error)

	// Unmatch returns a match group to Unreconciled.
	Unmatch(ctx context.Context, actor domain.Actor, sessionID string, matchGroupID string) error

	// CompleteReconciliation finalizes the session.
	CompleteReconciliation(ctx context.Context, actor domain.Actor, sessionID string, force bool) (*domain.ReconciliationSession, error)
}

// ReconciliationSvcFacade combines the reconciliation service interfaces.
type ReconciliationSvcFacade interface {
	ReconciliationReaderSvc
	ReconciliationWriterSvc
}
