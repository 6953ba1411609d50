package domain

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the match state of a single bank or ledger transaction.
type ReconciliationStatus string

const (
	Unreconciled ReconciliationStatus = "UNRECONCILED"
	Matched      ReconciliationStatus = "MATCHED"
	Reconciled   ReconciliationStatus = "RECONCILED"
)

// SessionStatus is the state of a reconciliation session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
)

// BankTransaction is one imported bank statement line.
type BankTransaction struct {
	BankTransactionID          string               `json:"bankTransactionID"`
	SessionID                  string               `json:"sessionID"`
	RowNo                      int                  `json:"rowNo"`
	Date                       time.Time            `json:"date"`
	Description                string               `json:"description"`
	Reference                  string               `json:"reference"`
	DebitAmount                decimal.Decimal      `json:"debitAmount"`
	CreditAmount               decimal.Decimal      `json:"creditAmount"`
	RunningBalance             decimal.NullDecimal  `json:"runningBalance"`
	Status                     ReconciliationStatus `json:"status"`
	MatchedLedgerTransactionID *string              `json:"matchedLedgerTransactionID,omitempty"`
	MatchGroupID               *string              `json:"matchGroupID,omitempty"`
}

// Side returns the statement line's non-zero side and amount.
func (b BankTransaction) Side() (BalanceSide, decimal.Decimal, bool) {
	return JournalLine{DebitAmount: b.DebitAmount, CreditAmount: b.CreditAmount}.Side()
}

// LedgerTransaction is the reconciliation view of a posted journal line on the reconciled account.
type LedgerTransaction struct {
	LedgerTransactionID string               `json:"ledgerTransactionID"` // journal line id
	EntryID             string               `json:"entryID"`
	Date                time.Time            `json:"date"`
	Reference           string               `json:"reference"`
	Description         string               `json:"description"`
	DebitAmount         decimal.Decimal      `json:"debitAmount"`
	CreditAmount        decimal.Decimal      `json:"creditAmount"`
	Status              ReconciliationStatus `json:"status"`
	MatchGroupID        *string              `json:"matchGroupID,omitempty"`
}

// Side returns the ledger line's non-zero side and amount.
func (l LedgerTransaction) Side() (BalanceSide, decimal.Decimal, bool) {
	return JournalLine{DebitAmount: l.DebitAmount, CreditAmount: l.CreditAmount}.Side()
}

// MatchProposal pairs one bank transaction with one ledger transaction.
type MatchProposal struct {
	BankTransactionID   string          `json:"bankTransactionID"`
	LedgerTransactionID string          `json:"ledgerTransactionID"`
	Amount              decimal.Decimal `json:"amount"`
	DateDiffDays        int             `json:"dateDiffDays"`
}

// SessionSummary is a derived view of a session's progress.
type SessionSummary struct {
	UnmatchedBank    int             `json:"unmatchedBank"`
	UnmatchedLedger  int             `json:"unmatchedLedger"`
	MatchedBank      int             `json:"matchedBank"`
	MatchedLedger    int             `json:"matchedLedger"`
	ReconciledBank   int             `json:"reconciledBank"`
	ReconciledLedger int             `json:"reconciledLedger"`
	ClearedBalance   decimal.Decimal `json:"clearedBalance"`
	Difference       decimal.Decimal `json:"difference"`
}

// ReconciliationSession pairs a bank statement with ledger lines for one account.
// All state changes go through its methods.
type ReconciliationSession struct {
	SessionID          string              `json:"sessionID"`
	AccountID          string              `json:"accountID"`
	StatementDate      time.Time           `json:"statementDate"`
	OpeningBalance     decimal.Decimal     `json:"openingBalance"`
	ClosingBalance     decimal.Decimal     `json:"closingBalance"`
	Status             SessionStatus       `json:"status"`
	CompletedAt        *time.Time          `json:"completedAt,omitempty"`
	BankTransactions   []BankTransaction   `json:"bankTransactions"`
	LedgerTransactions []LedgerTransaction `json:"ledgerTransactions"`
	Version            int64               `json:"version"`
	AuditFields
}

func (s *ReconciliationSession) ensureInProgress(operation string) error {
	if s.Status != SessionInProgress {
		return &apperrors.InvalidStateError{
			Entity:    "reconciliation session",
			ID:        s.SessionID,
			State:     string(s.Status),
			Operation: operation,
		}
	}
	return nil
}

func (s *ReconciliationSession) bankIndex(id string) int {
	for i := range s.BankTransactions {
		if s.BankTransactions[i].BankTransactionID == id {
			return i
		}
	}
	return -1
}

func (s *ReconciliationSession) ledgerIndex(id string) int {
	for i := range s.LedgerTransactions {
		if s.LedgerTransactions[i].LedgerTransactionID == id {
			return i
		}
	}
	return -1
}

// AddBankTransactions appends imported statement lines, all Unreconciled.
func (s *ReconciliationSession) AddBankTransactions(txns []BankTransaction) error {
	if err := s.ensureInProgress("import into"); err != nil {
		return err
	}
	for _, t := range txns {
		t.SessionID = s.SessionID
		t.Status = Unreconciled
		t.MatchedLedgerTransactionID = nil
		t.MatchGroupID = nil
		s.BankTransactions = append(s.BankTransactions, t)
	}
	return nil
}

// resolveUnreconciled maps ids to indexes, checking every id exists and is Unreconciled.
// Nothing is modified.
func (s *ReconciliationSession) resolveUnreconciled(bankIDs, ledgerIDs []string) ([]int, []int, error) {
	var violations []apperrors.Violation
	if len(bankIDs) == 0 {
		violations = append(violations, apperrors.Violation{Field: "bankIds", Rule: "required", Message: "at least one bank transaction is required"})
	}
	if len(ledgerIDs) == 0 {
		violations = append(violations, apperrors.Violation{Field: "ledgerIds", Rule: "required", Message: "at least one ledger transaction is required"})
	}

	bankIdx := make([]int, 0, len(bankIDs))
	seenBank := make(map[string]bool, len(bankIDs))
	for _, id := range bankIDs {
		if seenBank[id] {
			continue
		}
		seenBank[id] = true
		i := s.bankIndex(id)
		if i < 0 {
			violations = append(violations, apperrors.Violation{Field: "bankIds", Rule: "unknown_transaction", Message: "bank transaction " + id + " is not part of this session"})
			continue
		}
		bankIdx = append(bankIdx, i)
	}

	ledgerIdx := make([]int, 0, len(ledgerIDs))
	seenLedger := make(map[string]bool, len(ledgerIDs))
	for _, id := range ledgerIDs {
		if seenLedger[id] {
			continue
		}
		seenLedger[id] = true
		i := s.ledgerIndex(id)
		if i < 0 {
			violations = append(violations, apperrors.Violation{Field: "ledgerIds", Rule: "unknown_transaction", Message: "ledger transaction " + id + " is not part of this session"})
			continue
		}
		ledgerIdx = append(ledgerIdx, i)
	}

	if len(violations) > 0 {
		return nil, nil, apperrors.NewValidationError(violations...)
	}

	for _, i := range bankIdx {
		if t := s.BankTransactions[i]; t.Status != Unreconciled {
			return nil, nil, &apperrors.InvalidStateError{Entity: "bank transaction", ID: t.BankTransactionID, State: string(t.Status), Operation: "match"}
		}
	}
	for _, i := range ledgerIdx {
		if t := s.LedgerTransactions[i]; t.Status != Unreconciled {
			return nil, nil, &apperrors.InvalidStateError{Entity: "ledger transaction", ID: t.LedgerTransactionID, State: string(t.Status), Operation: "match"}
		}
	}
	return bankIdx, ledgerIdx, nil
}

func (s *ReconciliationSession) markMatched(bankIdx, ledgerIdx []int, groupID string) {
	var single *string
	if len(ledgerIdx) == 1 {
		id := s.LedgerTransactions[ledgerIdx[0]].LedgerTransactionID
		single = &id
	}
	for _, i := range bankIdx {
		g := groupID
		s.BankTransactions[i].Status = Matched
		s.BankTransactions[i].MatchGroupID = &g
		s.BankTransactions[i].MatchedLedgerTransactionID = single
	}
	for _, i := range ledgerIdx {
		g := groupID
		s.LedgerTransactions[i].Status = Matched
		s.LedgerTransactions[i].MatchGroupID = &g
	}
}

// ConfirmMatch moves the selected bank and ledger transactions to Matched as one group.
// No amount or date constraint applies. Either every selected transaction changes or none does.
func (s *ReconciliationSession) ConfirmMatch(bankIDs, ledgerIDs []string, groupID string) error {
	if err := s.ensureInProgress("match in"); err != nil {
		return err
	}
	bankIdx, ledgerIdx, err := s.resolveUnreconciled(bankIDs, ledgerIDs)
	if err != nil {
		return err
	}
	s.markMatched(bankIdx, ledgerIdx, groupID)
	return nil
}

// ApplyProposals confirms each proposal as a one-to-one group. newGroupID supplies group ids.
// Every proposal is checked before any is applied.
func (s *ReconciliationSession) ApplyProposals(proposals []MatchProposal, newGroupID func() string) error {
	if err := s.ensureInProgress("match in"); err != nil {
		return err
	}
	type pair struct{ bank, ledger []int }
	pairs := make([]pair, 0, len(proposals))
	usedBank := make(map[string]bool, len(proposals))
	usedLedger := make(map[string]bool, len(proposals))
	for _, p := range proposals {
		if usedBank[p.BankTransactionID] || usedLedger[p.LedgerTransactionID] {
			return apperrors.NewValidationError(apperrors.Violation{Field: "proposals", Rule: "one_to_one", Message: "a transaction appears in more than one proposal"})
		}
		usedBank[p.BankTransactionID] = true
		usedLedger[p.LedgerTransactionID] = true
		b, l, err := s.resolveUnreconciled([]string{p.BankTransactionID}, []string{p.LedgerTransactionID})
		if err != nil {
			return err
		}
		pairs = append(pairs, pair{bank: b, ledger: l})
	}
	for _, p := range pairs {
		s.markMatched(p.bank, p.ledger, newGroupID())
	}
	return nil
}

// Unmatch returns every transaction of a match group to Unreconciled.
func (s *ReconciliationSession) Unmatch(groupID string) error {
	if err := s.ensureInProgress("unmatch in"); err != nil {
		return err
	}
	found := false
	for i := range s.BankTransactions {
		t := &s.BankTransactions[i]
		if t.MatchGroupID != nil && *t.MatchGroupID == groupID {
			t.Status = Unreconciled
			t.MatchGroupID = nil
			t.MatchedLedgerTransactionID = nil
			found = true
		}
	}
	for i := range s.LedgerTransactions {
		t := &s.LedgerTransactions[i]
		if t.MatchGroupID != nil && *t.MatchGroupID == groupID {
			t.Status = Unreconciled
			t.MatchGroupID = nil
			found = true
		}
	}
	if !found {
		return apperrors.NewNotFoundError("match group " + groupID)
	}
	return nil
}

// UnreconciledBank returns the Unreconciled bank transactions in statement order.
func (s *ReconciliationSession) UnreconciledBank() []BankTransaction {
	out := make([]BankTransaction, 0, len(s.BankTransactions))
	for _, t := range s.BankTransactions {
		if t.Status == Unreconciled {
			out = append(out, t)
		}
	}
	return out
}

// UnreconciledLedger returns the Unreconciled ledger transactions in ledger order.
func (s *ReconciliationSession) UnreconciledLedger() []LedgerTransaction {
	out := make([]LedgerTransaction, 0, len(s.LedgerTransactions))
	for _, t := range s.LedgerTransactions {
		if t.Status == Unreconciled {
			out = append(out, t)
		}
	}
	return out
}

// MatchedLedgerIDs returns the ids of ledger transactions currently Matched.
func (s *ReconciliationSession) MatchedLedgerIDs() []string {
	ids := make([]string, 0)
	for _, t := range s.LedgerTransactions {
		if t.Status == Matched {
			ids = append(ids, t.LedgerTransactionID)
		}
	}
	return ids
}

// Summary counts transactions per status and derives the cleared balance.
func (s *ReconciliationSession) Summary() SessionSummary {
	sum := SessionSummary{ClearedBalance: s.OpeningBalance}
	for _, t := range s.BankTransactions {
		switch t.Status {
		case Unreconciled:
			sum.UnmatchedBank++
			continue
		case Matched:
			sum.MatchedBank++
		case Reconciled:
			sum.ReconciledBank++
		}
		sum.ClearedBalance = sum.ClearedBalance.Add(t.CreditAmount).Sub(t.DebitAmount)
	}
	for _, t := range s.LedgerTransactions {
		switch t.Status {
		case Unreconciled:
			sum.UnmatchedLedger++
		case Matched:
			sum.MatchedLedger++
		case Reconciled:
			sum.ReconciledLedger++
		}
	}
	sum.Difference = s.ClosingBalance.Sub(sum.ClearedBalance)
	return sum
}

// Complete finalizes the session. Without force it fails while anything is Unreconciled.
// Matched transactions become Reconciled; Unreconciled ones stay as they are.
func (s *ReconciliationSession) Complete(force bool, at time.Time) error {
	if err := s.ensureInProgress("complete"); err != nil {
		return err
	}
	summary := s.Summary()
	if !force && (summary.UnmatchedBank > 0 || summary.UnmatchedLedger > 0) {
		return &apperrors.IncompleteReconciliationError{
			UnmatchedBank:   summary.UnmatchedBank,
			UnmatchedLedger: summary.UnmatchedLedger,
		}
	}
	for i := range s.BankTransactions {
		if s.BankTransactions[i].Status == Matched {
			s.BankTransactions[i].Status = Reconciled
		}
	}
	for i := range s.LedgerTransactions {
		if s.LedgerTransactions[i].Status == Matched {
			s.LedgerTransactions[i].Status = Reconciled
		}
	}
	s.Status = SessionCompleted
	completedAt := at
	s.CompletedAt = &completedAt
	return nil
}
