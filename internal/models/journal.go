package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry represents a row of the journal_entries table.
type JournalEntry struct {
	EntryID      string     `db:"entry_id"`
	Reference    string     `db:"reference"`
	EntryDate    time.Time  `db:"entry_date"`
	Description  string     `db:"description"`
	Status       string     `db:"status"`
	PostedBy     *string    `db:"posted_by"`
	PostedAt     *time.Time `db:"posted_at"`
	VoidReason   *string    `db:"void_reason"`
	ReversalOfID *string    `db:"reversal_of_id"`
	ReversedByID *string    `db:"reversed_by_id"`
	Version      int64      `db:"version"`
	AuditFields
}

// JournalLine represents a row of the journal_lines table.
type JournalLine struct {
	LineID              string          `db:"line_id"`
	EntryID             string          `db:"entry_id"`
	LineNo              int             `db:"line_no"`
	AccountID           string          `db:"account_id"`
	DebitAmount         decimal.Decimal `db:"debit_amount"`
	CreditAmount        decimal.Decimal `db:"credit_amount"`
	Memo                string          `db:"memo"`
	ReconciledSessionID *string         `db:"reconciled_session_id"`
}
