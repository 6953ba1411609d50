package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/models"
	"github.com/SscSPs/ledger_core/internal/utils/mapping"
	"github.com/SscSPs/ledger_core/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `entry_id, reference, entry_date, description, status, posted_by, posted_at, void_reason,
	reversal_of_id, reversed_by_id, version, created_at, created_by, last_updated_at, last_updated_by`

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and lines.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.Reference,
		&m.EntryDate,
		&m.Description,
		&m.Status,
		&m.PostedBy,
		&m.PostedAt,
		&m.VoidReason,
		&m.ReversalOfID,
		&m.ReversedByID,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// insertEntryInTx writes an entry header and its lines.
func insertEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := tx.Exec(ctx, query,
		m.EntryID,
		m.Reference,
		m.EntryDate,
		m.Description,
		m.Status,
		m.PostedBy,
		m.PostedAt,
		m.VoidReason,
		m.ReversalOfID,
		m.ReversedByID,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return duplicateOr(err, "journal entry with reference "+m.Reference, "failed to insert journal entry "+m.EntryID)
	}
	return insertLinesInTx(ctx, tx, entry.Lines)
}

func insertLinesInTx(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `
		INSERT INTO journal_lines (line_id, entry_id, line_no, account_id, debit_amount, credit_amount, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	batch := &pgx.Batch{}
	for _, l := range lines {
		ml := mapping.ToModelJournalLine(l)
		batch.Queue(query, ml.LineID, ml.EntryID, ml.LineNo, ml.AccountID, ml.DebitAmount, ml.CreditAmount, ml.Memo)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert journal lines: %w", err)
	}
	return nil
}

// entryMiss explains why a guarded update of entryID touched no row.
func entryMiss(ctx context.Context, tx pgx.Tx, entryID string, expectedVersion int64, operation string) error {
	var status string
	var version int64
	err := tx.QueryRow(ctx, `SELECT status, version FROM journal_entries WHERE entry_id = $1;`, entryID).Scan(&status, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("journal entry " + entryID)
		}
		return fmt.Errorf("failed to re-read journal entry %s: %w", entryID, err)
	}
	switch {
	case operation == "post" && status == string(domain.Posted):
		return &apperrors.AlreadyPostedError{EntryID: entryID}
	case operation == "reverse" || status != string(domain.Draft):
		return &apperrors.InvalidStateError{Entity: "journal entry", ID: entryID, State: status, Operation: operation}
	default:
		return fmt.Errorf("%w: entry %s is at version %d, not %d", apperrors.ErrConflict, entryID, version, expectedVersion)
	}
}

// SaveDraft persists a new Draft entry with its lines.
func (r *PgxJournalRepository) SaveDraft(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdateDraft replaces a Draft's header and lines if it is still at expectedVersion.
func (r *PgxJournalRepository) UpdateDraft(ctx context.Context, entry domain.JournalEntry, expectedVersion int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelJournalEntry(entry)
	query := `
		UPDATE journal_entries
		SET reference = $3, entry_date = $4, description = $5, version = $6,
		    last_updated_at = $7, last_updated_by = $8
		WHERE entry_id = $1 AND status = 'DRAFT' AND version = $2;
	`
	ct, err := tx.Exec(ctx, query, m.EntryID, expectedVersion, m.Reference, m.EntryDate, m.Description, m.Version, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return duplicateOr(err, "journal entry with reference "+m.Reference, "failed to update journal entry "+m.EntryID)
	}
	if ct.RowsAffected() == 0 {
		return entryMiss(ctx, tx, entry.EntryID, expectedVersion, "update")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1;`, entry.EntryID); err != nil {
		return fmt.Errorf("failed to replace lines of journal entry %s: %w", entry.EntryID, err)
	}
	if err := insertLinesInTx(ctx, tx, entry.Lines); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// DeleteDraft removes a Draft and its lines if it is still at expectedVersion.
func (r *PgxJournalRepository) DeleteDraft(ctx context.Context, entryID string, expectedVersion int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	ct, err := tx.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = $1 AND status = 'DRAFT' AND version = $2;`, entryID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry %s: %w", entryID, err)
	}
	if ct.RowsAffected() == 0 {
		return entryMiss(ctx, tx, entryID, expectedVersion, "delete")
	}
	return r.Commit(ctx, tx)
}

// PostEntry moves a Draft to Posted and applies the balance deltas in one transaction.
// The guarded update serializes concurrent posts of the same entry: the loser sees no
// Draft row and gets AlreadyPostedError.
func (r *PgxJournalRepository) PostEntry(ctx context.Context, posting domain.Posting) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE journal_entries
		SET status = 'POSTED', posted_by = $3, posted_at = $4, version = $2 + 1,
		    last_updated_at = $4, last_updated_by = $3
		WHERE entry_id = $1 AND status = 'DRAFT' AND version = $2;
	`
	ct, err := tx.Exec(ctx, query, posting.EntryID, posting.ExpectedVersion, posting.PostedBy, posting.PostedAt)
	if err != nil {
		return fmt.Errorf("failed to post journal entry %s: %w", posting.EntryID, err)
	}
	if ct.RowsAffected() == 0 {
		return entryMiss(ctx, tx, posting.EntryID, posting.ExpectedVersion, "post")
	}

	if err := lockAccountsInTx(ctx, tx, posting.Deltas); err != nil {
		return err
	}
	if err := applyDeltasInTx(ctx, tx, posting.Deltas, posting.PostedBy, posting.PostedAt); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SaveReversal stores the posted reversal, voids the source and applies the reversal deltas.
func (r *PgxJournalRepository) SaveReversal(ctx context.Context, reversal domain.Reversal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertEntryInTx(ctx, tx, reversal.Entry); err != nil {
		return err
	}

	query := `
		UPDATE journal_entries
		SET status = 'VOID', void_reason = $2, reversed_by_id = $3, version = version + 1,
		    last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1 AND status = 'POSTED' AND reversed_by_id IS NULL;
	`
	ct, err := tx.Exec(ctx, query, reversal.SourceEntryID, reversal.VoidReason, reversal.Entry.EntryID, reversal.At, reversal.ActorID)
	if err != nil {
		return fmt.Errorf("failed to void journal entry %s: %w", reversal.SourceEntryID, err)
	}
	if ct.RowsAffected() == 0 {
		return entryMiss(ctx, tx, reversal.SourceEntryID, 0, "reverse")
	}

	if err := lockAccountsInTx(ctx, tx, reversal.Deltas); err != nil {
		return err
	}
	if err := applyDeltasInTx(ctx, tx, reversal.Deltas, reversal.ActorID, reversal.At); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// FindEntryByID retrieves an entry with its lines in line order.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`
	m, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("journal entry " + entryID)
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry by ID "+entryID, err)
	}

	lines, err := r.findLines(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainJournalEntry(m, lines[entryID])
	return &entry, nil
}

// findLines loads the lines of several entries, grouped by entry id.
func (r *PgxJournalRepository) findLines(ctx context.Context, entryIDs []string) (map[string][]models.JournalLine, error) {
	query := `
		SELECT line_id, entry_id, line_no, account_id, debit_amount, credit_amount, memo, reconciled_session_id
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_no;
	`
	rows, err := r.Pool.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journal lines", err)
	}
	defer rows.Close()

	lines := make(map[string][]models.JournalLine, len(entryIDs))
	for rows.Next() {
		var l models.JournalLine
		if err := rows.Scan(&l.LineID, &l.EntryID, &l.LineNo, &l.AccountID, &l.DebitAmount, &l.CreditAmount, &l.Memo, &l.ReconciledSessionID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal line row", err)
		}
		lines[l.EntryID] = append(lines[l.EntryID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal line rows", err)
	}
	return lines, nil
}

// ListEntries retrieves a page of entries using keyset pagination on
// (entry_date, created_at, entry_id), newest first.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter portsrepo.ListEntriesFilter) ([]domain.JournalEntry, *string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	// One extra row tells us whether there is a next page.
	fetchLimit := limit + 1

	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != nil {
		where = append(where, "status = "+arg(string(*filter.Status)))
	}
	if filter.From != nil {
		where = append(where, "entry_date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "entry_date <= "+arg(*filter.To))
	}
	if filter.NextToken != nil && *filter.NextToken != "" {
		cursor, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		where = append(where, "(entry_date, created_at, entry_id) < ("+arg(cursor.EntryDate)+", "+arg(cursor.CreatedAt)+", "+arg(cursor.EntryID)+")")
	}

	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY entry_date DESC, created_at DESC, entry_id DESC LIMIT " + arg(fetchLimit) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journal entries", err)
	}
	defer rows.Close()

	headers := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal entry row", err)
		}
		headers = append(headers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal entry rows", err)
	}

	var nextToken *string
	if len(headers) > limit {
		last := headers[limit-1]
		token := pagination.EncodeToken(pagination.Cursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, EntryID: last.EntryID})
		nextToken = &token
		headers = headers[:limit]
	}

	entries := make([]domain.JournalEntry, 0, len(headers))
	if len(headers) == 0 {
		return entries, nextToken, nil
	}
	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.EntryID
	}
	lines, err := r.findLines(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	for _, h := range headers {
		entries = append(entries, mapping.ToDomainJournalEntry(h, lines[h.EntryID]))
	}
	return entries, nextToken, nil
}

// ListUnreconciledLines returns unclaimed lines of Posted entries on the account up to through.
func (r *PgxJournalRepository) ListUnreconciledLines(ctx context.Context, accountID string, through time.Time) ([]domain.LedgerTransaction, error) {
	query := `
		SELECT e.entry_id, e.reference, e.entry_date, e.description,
		       l.line_id, l.debit_amount, l.credit_amount, l.memo
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $1
		  AND e.status = 'POSTED'
		  AND e.entry_date <= $2
		  AND l.reconciled_session_id IS NULL
		ORDER BY e.entry_date, e.entry_id, l.line_no;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, through)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query unreconciled lines for account "+accountID, err)
	}
	defer rows.Close()

	out := []domain.LedgerTransaction{}
	for rows.Next() {
		var e models.JournalEntry
		var l models.JournalLine
		if err := rows.Scan(&e.EntryID, &e.Reference, &e.EntryDate, &e.Description, &l.LineID, &l.DebitAmount, &l.CreditAmount, &l.Memo); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan unreconciled line for account "+accountID, err)
		}
		out = append(out, mapping.ToDomainLedgerTransaction(e, l))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating unreconciled lines for account "+accountID, err)
	}
	return out, nil
}
