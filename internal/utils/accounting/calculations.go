package accounting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Validation rule names reported in apperrors.Violation.Rule.
const (
	RuleReferenceRequired   = "reference_required"
	RuleDateRequired        = "date_required"
	RuleDescriptionRequired = "description_required"
	RuleMinLines            = "min_lines"
	RuleAccountRequired     = "account_required"
	RuleUnbalanced          = "unbalanced"
	RuleLineBothSides       = "line_both_sides"
	RuleLineNoSide          = "line_no_side"
	RuleNegativeAmount      = "negative_amount"
	RuleAmountPrecision     = "amount_precision"
	RuleAccountNotFound     = "account_not_found"
	RuleUnknownAccountType  = "unknown_account_type"
)

// MinLines is the minimum number of lines in a journal entry.
const MinLines = 2

var precisionMessage = fmt.Sprintf("amounts allow at most %d decimal places", domain.MaxAmountScale)

// CheckEntry runs the entry checks in order and returns every violation found.
// Structural checks come first, then the balance, then the per-line side checks.
func CheckEntry(entry domain.JournalEntry) []apperrors.Violation {
	violations := CheckStructure(entry)

	debits, credits := entry.Totals()
	if !debits.Equal(credits) {
		violations = append(violations, apperrors.Violation{
			Field: "lines",
			Rule:  RuleUnbalanced,
			Message: fmt.Sprintf("debits %s and credits %s differ by %s",
				debits.String(), credits.String(), debits.Sub(credits).Abs().String()),
		})
	}

	return append(violations, checkLineSides(entry.Lines)...)
}

// CheckStructure runs the checks that do not depend on the balance: header fields,
// line count, account presence and line sides. Drafts must pass these.
func CheckStructure(entry domain.JournalEntry) []apperrors.Violation {
	var violations []apperrors.Violation

	if strings.TrimSpace(entry.Reference) == "" {
		violations = append(violations, apperrors.Violation{Field: "reference", Rule: RuleReferenceRequired, Message: "reference is required"})
	}
	if entry.EntryDate.IsZero() {
		violations = append(violations, apperrors.Violation{Field: "date", Rule: RuleDateRequired, Message: "date is required"})
	}
	if strings.TrimSpace(entry.Description) == "" {
		violations = append(violations, apperrors.Violation{Field: "description", Rule: RuleDescriptionRequired, Message: "description is required"})
	}
	if len(entry.Lines) < MinLines {
		violations = append(violations, apperrors.Violation{
			Field:   "lines",
			Rule:    RuleMinLines,
			Message: fmt.Sprintf("at least %d lines are required, got %d", MinLines, len(entry.Lines)),
		})
	}
	for i, l := range entry.Lines {
		if strings.TrimSpace(l.AccountID) == "" {
			violations = append(violations, apperrors.Violation{Field: lineField(i, "accountId"), Rule: RuleAccountRequired, Message: "account is required"})
		}
	}
	return violations
}

// CheckDraft is CheckStructure plus the line side checks; balance is only enforced on posting.
func CheckDraft(entry domain.JournalEntry) []apperrors.Violation {
	return append(CheckStructure(entry), checkLineSides(entry.Lines)...)
}

func checkLineSides(lines []domain.JournalLine) []apperrors.Violation {
	var violations []apperrors.Violation
	for i, l := range lines {
		if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
			violations = append(violations, apperrors.Violation{Field: lineField(i, "amount"), Rule: RuleNegativeAmount, Message: "amounts must not be negative"})
			continue
		}
		if !domain.WithinScale(l.DebitAmount) || !domain.WithinScale(l.CreditAmount) {
			violations = append(violations, apperrors.Violation{Field: lineField(i, "amount"), Rule: RuleAmountPrecision, Message: precisionMessage})
		}
		hasDebit := !l.DebitAmount.IsZero()
		hasCredit := !l.CreditAmount.IsZero()
		switch {
		case hasDebit && hasCredit:
			violations = append(violations, apperrors.Violation{Field: lineField(i, "amount"), Rule: RuleLineBothSides, Message: "line cannot have both a debit and a credit amount"})
		case !hasDebit && !hasCredit:
			violations = append(violations, apperrors.Violation{Field: lineField(i, "amount"), Rule: RuleLineNoSide, Message: "line must have a debit or a credit amount"})
		}
	}
	return violations
}

func lineField(i int, name string) string {
	return fmt.Sprintf("lines[%d].%s", i, name)
}

// ValidateEntry returns a *apperrors.ValidationError carrying every violation, or nil.
func ValidateEntry(entry domain.JournalEntry) error {
	if v := CheckEntry(entry); len(v) > 0 {
		return apperrors.NewValidationError(v...)
	}
	return nil
}

// CalculateSignedAmount returns the effect of a line on its account's balance.
// A line on the account's normal side increases the balance; the opposite side decreases it.
func CalculateSignedAmount(line domain.JournalLine, account domain.Account) (decimal.Decimal, error) {
	normal, ok := account.NormalSide()
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown normal balance for account type '%s' on account ID %s", account.AccountType, account.AccountID)
	}
	side, amount, ok := line.Side()
	if !ok {
		return decimal.Zero, fmt.Errorf("line for account ID %s must have exactly one non-zero side", line.AccountID)
	}
	if side != normal {
		return amount.Neg(), nil
	}
	return amount, nil
}

// CalculateBalanceDeltas sums signed amounts per account and returns one delta per
// distinct account, ordered by account id.
func CalculateBalanceDeltas(lines []domain.JournalLine, accounts map[string]domain.Account) ([]domain.BalanceDelta, error) {
	var violations []apperrors.Violation
	totals := make(map[string]decimal.Decimal)
	for i, l := range lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			violations = append(violations, apperrors.Violation{
				Field:   lineField(i, "accountId"),
				Rule:    RuleAccountNotFound,
				Message: fmt.Sprintf("account %s does not exist", l.AccountID),
			})
			continue
		}
		if _, known := acc.NormalSide(); !known {
			violations = append(violations, apperrors.Violation{
				Field:   lineField(i, "accountId"),
				Rule:    RuleUnknownAccountType,
				Message: fmt.Sprintf("account %s has unknown type %s", l.AccountID, acc.AccountType),
			})
			continue
		}
		signed, err := CalculateSignedAmount(l, acc)
		if err != nil {
			return nil, err
		}
		if current, ok := totals[l.AccountID]; ok {
			totals[l.AccountID] = current.Add(signed)
		} else {
			totals[l.AccountID] = signed
		}
	}
	if len(violations) > 0 {
		return nil, apperrors.NewValidationError(violations...)
	}

	deltas := make([]domain.BalanceDelta, 0, len(totals))
	for id, amount := range totals {
		deltas = append(deltas, domain.BalanceDelta{AccountID: id, Amount: amount})
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].AccountID < deltas[j].AccountID })
	return deltas, nil
}

// PostingResult is the outcome of posting an entry against a snapshot of balances.
type PostingResult struct {
	Entry       domain.JournalEntry
	Deltas      []domain.BalanceDelta
	NewBalances map[string]decimal.Decimal
}

// Post validates a Draft entry and computes its posted form, per-account deltas and the
// balances that result from applying them. It does not modify its inputs.
func Post(entry domain.JournalEntry, accounts map[string]domain.Account, postedBy string, postedAt time.Time) (*PostingResult, error) {
	if entry.Status != domain.Draft {
		if entry.Status == domain.Posted {
			return nil, &apperrors.AlreadyPostedError{EntryID: entry.EntryID}
		}
		return nil, &apperrors.InvalidStateError{Entity: "journal entry", ID: entry.EntryID, State: string(entry.Status), Operation: "post"}
	}
	if err := ValidateEntry(entry); err != nil {
		return nil, err
	}

	deltas, err := CalculateBalanceDeltas(entry.Lines, accounts)
	if err != nil {
		return nil, err
	}

	posted := entry
	posted.Lines = append([]domain.JournalLine(nil), entry.Lines...)
	posted.Status = domain.Posted
	by := postedBy
	at := postedAt
	posted.PostedBy = &by
	posted.PostedAt = &at
	posted.Touch(postedBy, postedAt)

	return &PostingResult{
		Entry:       posted,
		Deltas:      deltas,
		NewBalances: ApplyDeltas(accounts, deltas),
	}, nil
}

// ApplyDeltas returns the balances of the touched accounts after adding each delta.
func ApplyDeltas(accounts map[string]domain.Account, deltas []domain.BalanceDelta) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(deltas))
	for _, d := range deltas {
		out[d.AccountID] = accounts[d.AccountID].Balance.Add(d.Amount)
	}
	return out
}

// NegateDeltas returns the deltas with every amount negated.
func NegateDeltas(deltas []domain.BalanceDelta) []domain.BalanceDelta {
	out := make([]domain.BalanceDelta, len(deltas))
	for i, d := range deltas {
		out[i] = domain.BalanceDelta{AccountID: d.AccountID, Amount: d.Amount.Neg()}
	}
	return out
}
