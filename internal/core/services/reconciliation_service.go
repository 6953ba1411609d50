package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
	"github.com/SscSPs/ledger_core/internal/utils/matching"
	"github.com/SscSPs/ledger_core/internal/utils/statement"
	"github.com/shopspring/decimal"
)

// reconciliationService drives reconciliation sessions. Each operation loads the session,
// applies one domain method and stores the result under the session version.
type reconciliationService struct {
	BaseService
	reconRepo  portsrepo.ReconciliationRepositoryFacade
	ledgerRepo portsrepo.LedgerLineReader
	accountSvc portssvc.AccountSvcFacade
	matcher    *matching.Matcher
	importer   *statement.Importer
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	reconRepo portsrepo.ReconciliationRepositoryFacade,
	ledgerRepo portsrepo.LedgerLineReader,
	accountSvc portssvc.AccountSvcFacade,
	matcher *matching.Matcher,
	opts ...Option,
) portssvc.ReconciliationSvcFacade {
	s := &reconciliationService{
		BaseService: newBaseService(),
		reconRepo:   reconRepo,
		ledgerRepo:  ledgerRepo,
		accountSvc:  accountSvc,
		matcher:     matcher,
	}
	s.apply(opts)
	if s.matcher == nil {
		s.matcher = matching.NewMatcher()
	}
	s.importer = statement.NewImporter(s.newID)
	return s
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// StartSession opens a session and snapshots the account's unreconciled ledger lines.
func (s *reconciliationService) StartSession(ctx context.Context, actor domain.Actor, req dto.StartReconciliationRequest) (*domain.ReconciliationSession, error) {
	if err := s.Authorize(ctx, actor, domain.CapReconcile); err != nil {
		return nil, err
	}

	statementDate := dto.ParseDate(req.StatementDate)
	var violations []apperrors.Violation
	if statementDate.IsZero() {
		violations = append(violations, apperrors.Violation{Field: "statementDate", Rule: accounting.RuleDateRequired, Message: "statement date is required"})
	}
	balances := []struct {
		field  string
		amount decimal.Decimal
	}{
		{"openingBalance", req.OpeningBalance},
		{"closingBalance", req.ClosingBalance},
	}
	for _, b := range balances {
		if !domain.WithinScale(b.amount) {
			violations = append(violations, apperrors.Violation{
				Field:   b.field,
				Rule:    accounting.RuleAmountPrecision,
				Message: fmt.Sprintf("%s allows at most %d decimal places", b.field, domain.MaxAmountScale),
			})
		}
	}
	if len(violations) > 0 {
		return nil, apperrors.NewValidationError(violations...)
	}

	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, []string{req.AccountID})
	if err != nil {
		return nil, err
	}
	if _, ok := accounts[req.AccountID]; !ok {
		return nil, apperrors.NewNotFoundError("account " + req.AccountID)
	}

	ledger, err := s.ledgerRepo.ListUnreconciledLines(ctx, req.AccountID, statementDate)
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger lines", slog.String("account_id", req.AccountID))
		return nil, fmt.Errorf("failed to load ledger lines: %w", err)
	}

	session := domain.ReconciliationSession{
		SessionID:          s.newID(),
		AccountID:          req.AccountID,
		StatementDate:      statementDate,
		OpeningBalance:     req.OpeningBalance,
		ClosingBalance:     req.ClosingBalance,
		Status:             domain.SessionInProgress,
		BankTransactions:   []domain.BankTransaction{},
		LedgerTransactions: ledger,
		Version:            1,
		AuditFields:        domain.NewAuditFields(actor.UserID, s.now()),
	}

	if err := s.reconRepo.SaveSession(ctx, session); err != nil {
		s.LogError(ctx, err, "Failed to save reconciliation session", slog.String("account_id", req.AccountID))
		return nil, fmt.Errorf("failed to start reconciliation: %w", err)
	}

	s.LogInfo(ctx, "Reconciliation started",
		slog.String("session_id", session.SessionID),
		slog.String("account_id", session.AccountID),
		slog.Int("ledger_transactions", len(ledger)))
	return &session, nil
}

// GetSession retrieves a session with its transactions.
func (s *reconciliationService) GetSession(ctx context.Context, actor domain.Actor, sessionID string) (*domain.ReconciliationSession, error) {
	if err := s.Authorize(ctx, actor, domain.CapRead); err != nil {
		return nil, err
	}
	return s.findSession(ctx, sessionID)
}

// ImportBankStatement converts rows and appends the valid ones to the session.
func (s *reconciliationService) ImportBankStatement(ctx context.Context, actor domain.Actor, sessionID string, rows []statement.RawRow) ([]domain.BankTransaction, error) {
	if err := s.Authorize(ctx, actor, domain.CapReconcile); err != nil {
		return nil, err
	}
	return s.importRows(ctx, actor, sessionID, rows, nil)
}

// ImportBankStatementCSV reads a statement CSV and imports its rows.
func (s *reconciliationService) ImportBankStatementCSV(ctx context.Context, actor domain.Actor, sessionID string, r io.Reader) ([]domain.BankTransaction, error) {
	if err := s.Authorize(ctx, actor, domain.CapReconcile); err != nil {
		return nil, err
	}
	rows, lineErrors, err := statement.ReadCSV(r)
	if err != nil {
		s.LogWarn(ctx, err, "Unreadable statement file", slog.String("session_id", sessionID))
		return nil, &apperrors.ImportError{Rows: []apperrors.RowError{{Row: 0, Message: err.Error()}}}
	}
	return s.importRows(ctx, actor, sessionID, rows, lineErrors)
}

// importRows converts rows and appends the valid ones. readErrors are rows that failed
// before conversion and are reported with the conversion errors.
func (s *reconciliationService) importRows(ctx context.Context, actor domain.Actor, sessionID string, rows []statement.RawRow, readErrors []apperrors.RowError) ([]domain.BankTransaction, error) {
	txns, convertErr := s.importer.Convert(rows)
	importErr := statement.JoinRowErrors(convertErr, readErrors)
	if importErr != nil {
		s.LogWarn(ctx, importErr, "Statement rows rejected", slog.String("session_id", sessionID), slog.Int("accepted", len(txns)))
	}
	if len(txns) == 0 {
		if importErr != nil {
			return nil, importErr
		}
		return []domain.BankTransaction{}, nil
	}

	var imported []domain.BankTransaction
	_, err := s.mutate(ctx, actor, sessionID, func(session *domain.ReconciliationSession) error {
		before := len(session.BankTransactions)
		if err := session.AddBankTransactions(txns); err != nil {
			return err
		}
		imported = append([]domain.BankTransaction(nil), session.BankTransactions[before:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Statement imported", slog.String("session_id", sessionID), slog.Int("imported", len(imported)))
	if importErr != nil {
		return imported, importErr
	}
	return imported, nil
}

// AutoMatch runs the matcher over the session's Unreconciled transactions.
// With apply the proposals are confirmed as one-to-one groups in the same update.
func (s *reconciliationService) AutoMatch(ctx context.Context, actor domain.Actor, sessionID string, apply bool) ([]domain.MatchProposal, error) {
	if err := s.Authorize(ctx, actor, domain.CapReconcile); err != nil {
		return nil, err
	}

	if !apply {
		session, err := s.findSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return s.matcher.Match(session.UnreconciledBank(), session.UnreconciledLedger()), nil
	}

	var proposals []domain.MatchProposal
	_, err := s.mutate(ctx, actor, sessionID, func(session *domain.ReconciliationSession) error {
		proposals = s.matcher.Match(session.UnreconciledBank(), session.UnreconciledLedger())
		return session.ApplyProposals(proposals, s.newID)
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Auto-match applied", slog.String("session_id", sessionID), slog.Int("matches", len(proposals)))
	return proposals, nil
}

// ConfirmMatch matches the selected transactions as one group.
func (s *reconciliationService) ConfirmMatch(ctx context.Context, actor domain.Actor, sessionID string, bankIDs, ledgerIDs []string) (string, error) {
	if err := s.Authorize(ctx, actor, domain.CapReconcile); err != nil {
		return "", err
	}

	groupID := s.newID()
	_, err := s.mutate(ctx, actor, sessionID, func(session *domain.ReconciliationSession) error {
		return session.ConfirmMatch(bankIDs, ledgerIDs, groupID)
	})
	if err != nil {
		return "", err
	}

	s.LogInfo(ctx, "Match confirmed",
		slog.String("session_id", sessionID),
		slog.String("match_group_id", groupID),
		slog.Int("bank", len(bankIDs)),
		slog.Int("ledger", len(ledgerIDs)))
	return groupID, nil
}

// Unmatch returns a match group to Unreconciled.
func (s *reconciliationService) Unmatch(ctx context.Context, actor domain.Actor, sessionID string, matchGroupID string) error {
	if err := s.Authorize(ctx, actor, domain.CapReconcile); err != nil {
		return err
	}
	_, err := s.mutate(ctx, actor, sessionID, func(session *domain.ReconciliationSession) error {
		return session.Unmatch(matchGroupID)
	})
	if err != nil {
		return err
	}
	s.LogInfo(ctx, "Match removed", slog.String("session_id", sessionID), slog.String("match_group_id", matchGroupID))
	return nil
}

// CompleteReconciliation finalizes the session. The repository re-checks every matched
// ledger line inside its transaction and refuses stale matches.
func (s *reconciliationService) CompleteReconciliation(ctx context.Context, actor domain.Actor, sessionID string, force bool) (*domain.ReconciliationSession, error) {
	if err := s.Authorize(ctx, actor, domain.CapReconcile); err != nil {
		return nil, err
	}

	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	expected := session.Version

	now := s.now()
	if err := session.Complete(force, now); err != nil {
		s.LogWarn(ctx, err, "Completion rejected", slog.String("session_id", sessionID), slog.Bool("force", force))
		return nil, err
	}
	session.Version = expected + 1
	session.Touch(actor.UserID, now)

	if err := s.reconRepo.CompleteSession(ctx, *session, expected); err != nil {
		var stale *apperrors.StaleMatchError
		if errors.As(err, &stale) || errors.Is(err, apperrors.ErrConflict) {
			s.LogWarn(ctx, err, "Completion conflicted", slog.String("session_id", sessionID))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to complete reconciliation", slog.String("session_id", sessionID))
		return nil, fmt.Errorf("failed to complete reconciliation: %w", err)
	}

	summary := session.Summary()
	s.LogInfo(ctx, "Reconciliation completed",
		slog.String("session_id", sessionID),
		slog.Bool("forced", force),
		slog.Int("reconciled_bank", summary.ReconciledBank),
		slog.String("difference", summary.Difference.String()))
	return session, nil
}

// mutate loads a session, applies fn and stores it under the loaded version.
// Nothing is stored when fn fails.
func (s *reconciliationService) mutate(ctx context.Context, actor domain.Actor, sessionID string, fn func(*domain.ReconciliationSession) error) (*domain.ReconciliationSession, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	expected := session.Version

	if err := fn(session); err != nil {
		s.LogWarn(ctx, err, "Session change rejected", slog.String("session_id", sessionID))
		return nil, err
	}
	session.Version = expected + 1
	session.Touch(actor.UserID, s.now())

	if err := s.reconRepo.UpdateSession(ctx, *session, expected); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			s.LogWarn(ctx, err, "Concurrent session update", slog.String("session_id", sessionID))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to update session", slog.String("session_id", sessionID))
		return nil, fmt.Errorf("failed to update reconciliation session: %w", err)
	}
	return session, nil
}

func (s *reconciliationService) findSession(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	session, err := s.reconRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to find session", slog.String("session_id", sessionID))
		return nil, fmt.Errorf("failed to load reconciliation session %s: %w", sessionID, err)
	}
	return session, nil
}
