package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationSession represents a row of the reconciliation_sessions table.
type ReconciliationSession struct {
	SessionID      string          `db:"session_id"`
	AccountID      string          `db:"account_id"`
	StatementDate  time.Time       `db:"statement_date"`
	OpeningBalance decimal.Decimal `db:"opening_balance"`
	ClosingBalance decimal.Decimal `db:"closing_balance"`
	Status         string          `db:"status"`
	CompletedAt    *time.Time      `db:"completed_at"`
	Version        int64           `db:"version"`
	AuditFields
}

// BankTransaction represents a row of the bank_transactions table.
// Position keeps statement order across several imports.
type BankTransaction struct {
	BankTransactionID          string              `db:"bank_transaction_id"`
	SessionID                  string              `db:"session_id"`
	Position                   int                 `db:"position"`
	RowNo                      int                 `db:"row_no"`
	TxnDate                    time.Time           `db:"txn_date"`
	Description                string              `db:"description"`
	Reference                  string              `db:"reference"`
	DebitAmount                decimal.Decimal     `db:"debit_amount"`
	CreditAmount               decimal.Decimal     `db:"credit_amount"`
	RunningBalance             decimal.NullDecimal `db:"running_balance"`
	Status                     string              `db:"status"`
	MatchedLedgerTransactionID *string             `db:"matched_line_id"`
	MatchGroupID               *string             `db:"match_group_id"`
}

// ReconciliationLedgerItem represents a row of the reconciliation_ledger_items table:
// a journal line loaded into a session, with its match state.
type ReconciliationLedgerItem struct {
	SessionID    string  `db:"session_id"`
	LineID       string  `db:"line_id"`
	Position     int     `db:"position"`
	Status       string  `db:"status"`
	MatchGroupID *string `db:"match_group_id"`
}
