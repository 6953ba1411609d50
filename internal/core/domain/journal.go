package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Draft  JournalStatus = "DRAFT"
	Posted JournalStatus = "POSTED"
	Void   JournalStatus = "VOID"
)

// JournalLine is one debit or credit against a single account.
type JournalLine struct {
	LineID       string          `json:"lineID"`
	EntryID      string          `json:"entryID"`
	LineNo       int             `json:"lineNo"`
	AccountID    string          `json:"accountID"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Memo         string          `json:"memo"`
}

// Side returns the line's non-zero side and amount. ok is false when the line
// has both sides or neither side set.
func (l JournalLine) Side() (side BalanceSide, amount decimal.Decimal, ok bool) {
	hasDebit := !l.DebitAmount.IsZero()
	hasCredit := !l.CreditAmount.IsZero()
	switch {
	case hasDebit && !hasCredit:
		return Debit, l.DebitAmount, true
	case hasCredit && !hasDebit:
		return Credit, l.CreditAmount, true
	default:
		return "", decimal.Zero, false
	}
}

// Swapped returns a copy of the line with debit and credit exchanged.
func (l JournalLine) Swapped() JournalLine {
	l.DebitAmount, l.CreditAmount = l.CreditAmount, l.DebitAmount
	return l
}

// JournalEntry is a header plus an ordered list of lines.
type JournalEntry struct {
	EntryID      string        `json:"entryID"`
	Reference    string        `json:"reference"`
	EntryDate    time.Time     `json:"entryDate"`
	Description  string        `json:"description"`
	Lines        []JournalLine `json:"lines"`
	Status       JournalStatus `json:"status"`
	PostedBy     *string       `json:"postedBy,omitempty"`
	PostedAt     *time.Time    `json:"postedAt,omitempty"`
	VoidReason   *string       `json:"voidReason,omitempty"`
	ReversalOfID *string       `json:"reversalOfID,omitempty"`
	ReversedByID *string       `json:"reversedByID,omitempty"`
	Version      int64         `json:"version"`
	AuditFields
}

// Totals returns the sum of debit and credit amounts across all lines.
func (e JournalEntry) Totals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debits = debits.Add(l.DebitAmount)
		credits = credits.Add(l.CreditAmount)
	}
	return debits, credits
}

// AccountIDs returns the distinct, non-blank account ids in line order.
func (e JournalEntry) AccountIDs() []string {
	seen := make(map[string]bool, len(e.Lines))
	ids := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if l.AccountID == "" || seen[l.AccountID] {
			continue
		}
		seen[l.AccountID] = true
		ids = append(ids, l.AccountID)
	}
	return ids
}

// Posting is the atomic unit applied by a repository when an entry moves Draft to Posted.
type Posting struct {
	EntryID         string
	ExpectedVersion int64
	PostedBy        string
	PostedAt        time.Time
	Deltas          []BalanceDelta
}

// Reversal is the atomic unit that voids a source entry and records its posted reversal.
type Reversal struct {
	SourceEntryID string
	VoidReason    string
	Entry         JournalEntry
	Deltas        []BalanceDelta
	ActorID       string
	At            time.Time
}
