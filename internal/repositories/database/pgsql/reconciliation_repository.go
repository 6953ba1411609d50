package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/models"
	"github.com/SscSPs/ledger_core/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxReconciliationRepository struct {
	BaseRepository
}

func newPgxReconciliationRepository(pool *pgxpool.Pool) *PgxReconciliationRepository {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

// SaveSession persists a new session with its ledger snapshot.
func (r *PgxReconciliationRepository) SaveSession(ctx context.Context, session domain.ReconciliationSession) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelReconciliationSession(session)
	query := `
		INSERT INTO reconciliation_sessions (
			session_id, account_id, statement_date, opening_balance, closing_balance, status,
			completed_at, version, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = tx.Exec(ctx, query,
		m.SessionID,
		m.AccountID,
		m.StatementDate,
		m.OpeningBalance,
		m.ClosingBalance,
		m.Status,
		m.CompletedAt,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return duplicateOr(err, "reconciliation session "+m.SessionID, "failed to insert reconciliation session "+m.SessionID)
	}

	if err := writeTransactionsInTx(ctx, tx, session); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdateSession stores the session if it is still at expectedVersion.
func (r *PgxReconciliationRepository) UpdateSession(ctx context.Context, session domain.ReconciliationSession, expectedVersion int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := updateSessionInTx(ctx, tx, session, expectedVersion); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// CompleteSession stores the completed session and claims its Reconciled ledger lines.
// A line whose entry is no longer Posted, or that another session already claimed,
// makes the whole completion fail with StaleMatchError.
func (r *PgxReconciliationRepository) CompleteSession(ctx context.Context, session domain.ReconciliationSession, expectedVersion int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := updateSessionInTx(ctx, tx, session, expectedVersion); err != nil {
		return err
	}

	var reconciled []string
	for _, t := range session.LedgerTransactions {
		if t.Status == domain.Reconciled {
			reconciled = append(reconciled, t.LedgerTransactionID)
		}
	}
	if len(reconciled) > 0 {
		claimed, err := claimLinesInTx(ctx, tx, session.SessionID, reconciled)
		if err != nil {
			return err
		}
		var stale []string
		for _, id := range reconciled {
			if !claimed[id] {
				stale = append(stale, id)
			}
		}
		if len(stale) > 0 {
			return &apperrors.StaleMatchError{SessionID: session.SessionID, LedgerTransactionIDs: stale}
		}
	}
	return r.Commit(ctx, tx)
}

// claimLinesInTx marks lines of Posted entries as reconciled by sessionID and returns the ids it claimed.
func claimLinesInTx(ctx context.Context, tx pgx.Tx, sessionID string, lineIDs []string) (map[string]bool, error) {
	query := `
		UPDATE journal_lines l
		SET reconciled_session_id = $1
		FROM journal_entries e
		WHERE e.entry_id = l.entry_id
		  AND l.line_id = ANY($2)
		  AND e.status = 'POSTED'
		  AND (l.reconciled_session_id IS NULL OR l.reconciled_session_id = $1)
		RETURNING l.line_id;
	`
	rows, err := tx.Query(ctx, query, sessionID, lineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to claim ledger lines for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	claimed := make(map[string]bool, len(lineIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan claimed line: %w", err)
		}
		claimed[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claimed lines: %w", err)
	}
	return claimed, nil
}

func updateSessionInTx(ctx context.Context, tx pgx.Tx, session domain.ReconciliationSession, expectedVersion int64) error {
	m := mapping.ToModelReconciliationSession(session)
	query := `
		UPDATE reconciliation_sessions
		SET status = $3, completed_at = $4, version = $5, last_updated_at = $6, last_updated_by = $7
		WHERE session_id = $1 AND version = $2;
	`
	ct, err := tx.Exec(ctx, query, m.SessionID, expectedVersion, m.Status, m.CompletedAt, m.Version, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to update reconciliation session %s: %w", m.SessionID, err)
	}
	if ct.RowsAffected() == 0 {
		var version int64
		err := tx.QueryRow(ctx, `SELECT version FROM reconciliation_sessions WHERE session_id = $1;`, m.SessionID).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("reconciliation session " + m.SessionID)
		}
		if err != nil {
			return fmt.Errorf("failed to re-read reconciliation session %s: %w", m.SessionID, err)
		}
		return fmt.Errorf("%w: session %s is at version %d, not %d", apperrors.ErrConflict, m.SessionID, version, expectedVersion)
	}

	for _, stmt := range []string{
		`DELETE FROM bank_transactions WHERE session_id = $1;`,
		`DELETE FROM reconciliation_ledger_items WHERE session_id = $1;`,
	} {
		if _, err := tx.Exec(ctx, stmt, m.SessionID); err != nil {
			return fmt.Errorf("failed to clear transactions of session %s: %w", m.SessionID, err)
		}
	}
	return writeTransactionsInTx(ctx, tx, session)
}

// writeTransactionsInTx inserts the session's bank and ledger transactions in order.
func writeTransactionsInTx(ctx context.Context, tx pgx.Tx, session domain.ReconciliationSession) error {
	bankQuery := `
		INSERT INTO bank_transactions (
			bank_transaction_id, session_id, position, row_no, txn_date, description, reference,
			debit_amount, credit_amount, running_balance, status, matched_line_id, match_group_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	ledgerQuery := `
		INSERT INTO reconciliation_ledger_items (session_id, line_id, position, status, match_group_id)
		VALUES ($1, $2, $3, $4, $5);
	`

	batch := &pgx.Batch{}
	for i, t := range session.BankTransactions {
		m := mapping.ToModelBankTransaction(t, i)
		m.SessionID = session.SessionID
		batch.Queue(bankQuery,
			m.BankTransactionID,
			m.SessionID,
			m.Position,
			m.RowNo,
			m.TxnDate,
			m.Description,
			m.Reference,
			m.DebitAmount,
			m.CreditAmount,
			m.RunningBalance,
			m.Status,
			m.MatchedLedgerTransactionID,
			m.MatchGroupID,
		)
	}
	for i, t := range session.LedgerTransactions {
		m := mapping.ToModelLedgerItem(session.SessionID, t, i)
		batch.Queue(ledgerQuery, m.SessionID, m.LineID, m.Position, m.Status, m.MatchGroupID)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write transactions of session %s: %w", session.SessionID, err)
	}
	return nil
}

// FindSessionByID loads a session with its bank transactions and ledger lines.
func (r *PgxReconciliationRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	query := `
		SELECT session_id, account_id, statement_date, opening_balance, closing_balance, status,
		       completed_at, version, created_at, created_by, last_updated_at, last_updated_by
		FROM reconciliation_sessions
		WHERE session_id = $1;
	`
	var m models.ReconciliationSession
	err := r.Pool.QueryRow(ctx, query, sessionID).Scan(
		&m.SessionID,
		&m.AccountID,
		&m.StatementDate,
		&m.OpeningBalance,
		&m.ClosingBalance,
		&m.Status,
		&m.CompletedAt,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("reconciliation session " + sessionID)
		}
		return nil, apperrors.NewAppError(500, "failed to find reconciliation session "+sessionID, err)
	}

	session := mapping.ToDomainReconciliationSession(m)
	if session.BankTransactions, err = r.findBankTransactions(ctx, sessionID); err != nil {
		return nil, err
	}
	if session.LedgerTransactions, err = r.findLedgerTransactions(ctx, sessionID); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *PgxReconciliationRepository) findBankTransactions(ctx context.Context, sessionID string) ([]domain.BankTransaction, error) {
	query := `
		SELECT bank_transaction_id, session_id, position, row_no, txn_date, description, reference,
		       debit_amount, credit_amount, running_balance, status, matched_line_id, match_group_id
		FROM bank_transactions
		WHERE session_id = $1
		ORDER BY position;
	`
	rows, err := r.Pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query bank transactions for session "+sessionID, err)
	}
	defer rows.Close()

	out := []domain.BankTransaction{}
	for rows.Next() {
		var m models.BankTransaction
		err := rows.Scan(
			&m.BankTransactionID,
			&m.SessionID,
			&m.Position,
			&m.RowNo,
			&m.TxnDate,
			&m.Description,
			&m.Reference,
			&m.DebitAmount,
			&m.CreditAmount,
			&m.RunningBalance,
			&m.Status,
			&m.MatchedLedgerTransactionID,
			&m.MatchGroupID,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bank transaction for session "+sessionID, err)
		}
		out = append(out, mapping.ToDomainBankTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating bank transactions for session "+sessionID, err)
	}
	return out, nil
}

func (r *PgxReconciliationRepository) findLedgerTransactions(ctx context.Context, sessionID string) ([]domain.LedgerTransaction, error) {
	query := `
		SELECT e.entry_id, e.reference, e.entry_date, e.description,
		       l.line_id, l.debit_amount, l.credit_amount, l.memo,
		       i.status, i.match_group_id
		FROM reconciliation_ledger_items i
		JOIN journal_lines l ON l.line_id = i.line_id
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE i.session_id = $1
		ORDER BY i.position;
	`
	rows, err := r.Pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger transactions for session "+sessionID, err)
	}
	defer rows.Close()

	out := []domain.LedgerTransaction{}
	for rows.Next() {
		var e models.JournalEntry
		var l models.JournalLine
		var item models.ReconciliationLedgerItem
		err := rows.Scan(
			&e.EntryID, &e.Reference, &e.EntryDate, &e.Description,
			&l.LineID, &l.DebitAmount, &l.CreditAmount, &l.Memo,
			&item.Status, &item.MatchGroupID,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger transaction for session "+sessionID, err)
		}
		t := mapping.ToDomainLedgerTransaction(e, l)
		t.Status = domain.ReconciliationStatus(item.Status)
		t.MatchGroupID = item.MatchGroupID
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger transactions for session "+sessionID, err)
	}
	return out, nil
}
