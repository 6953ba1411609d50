package accounting_test

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cash     = domain.Account{AccountID: "A", Code: "1000", AccountType: domain.Asset, NormalBalanceSide: domain.Debit, Balance: decimal.NewFromInt(1000)}
	payable  = domain.Account{AccountID: "B", Code: "2000", AccountType: domain.Liability, NormalBalanceSide: domain.Credit, Balance: decimal.NewFromInt(300)}
	revenue  = domain.Account{AccountID: "C", Code: "4000", AccountType: domain.Revenue, NormalBalanceSide: domain.Credit}
	accounts = map[string]domain.Account{"A": cash, "B": payable, "C": revenue}
)

func debit(account string, amount int64) domain.JournalLine {
	return domain.JournalLine{AccountID: account, DebitAmount: decimal.NewFromInt(amount)}
}

func credit(account string, amount int64) domain.JournalLine {
	return domain.JournalLine{AccountID: account, CreditAmount: decimal.NewFromInt(amount)}
}

func draft(lines ...domain.JournalLine) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:     "e1",
		Reference:   "JE-001",
		EntryDate:   time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Description: "test entry",
		Status:      domain.Draft,
		Lines:       lines,
	}
}

func rules(violations []apperrors.Violation) []string {
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.Rule
	}
	return out
}

func TestCheckEntry_AccumulatesInOrder(t *testing.T) {
	entry := domain.JournalEntry{
		Lines: []domain.JournalLine{
			{AccountID: "", DebitAmount: decimal.NewFromInt(10), CreditAmount: decimal.NewFromInt(5)},
		},
	}

	got := rules(accounting.CheckEntry(entry))

	assert.Equal(t, []string{
		accounting.RuleReferenceRequired,
		accounting.RuleDateRequired,
		accounting.RuleDescriptionRequired,
		accounting.RuleMinLines,
		accounting.RuleAccountRequired,
		accounting.RuleUnbalanced,
		accounting.RuleLineBothSides,
	}, got)
}

func TestCheckEntry_ZeroLine(t *testing.T) {
	entry := draft(debit("A", 100), credit("B", 100), domain.JournalLine{AccountID: "C"})

	assert.Equal(t, []string{accounting.RuleLineNoSide}, rules(accounting.CheckEntry(entry)))
}

func TestCheckEntry_NegativeAmount(t *testing.T) {
	entry := draft(debit("A", -100), credit("B", -100))

	assert.Equal(t, []string{accounting.RuleNegativeAmount, accounting.RuleNegativeAmount}, rules(accounting.CheckEntry(entry)))
}

func TestCheckEntry_ExactDecimalBalance(t *testing.T) {
	entry := draft(
		domain.JournalLine{AccountID: "A", DebitAmount: decimal.RequireFromString("0.1")},
		domain.JournalLine{AccountID: "A", DebitAmount: decimal.RequireFromString("0.2")},
		domain.JournalLine{AccountID: "B", CreditAmount: decimal.RequireFromString("0.3")},
	)

	assert.Empty(t, accounting.CheckEntry(entry))
}

func TestCheckDraft_AllowsImbalance(t *testing.T) {
	entry := draft(debit("A", 100), credit("B", 90))

	assert.Empty(t, accounting.CheckDraft(entry))
	assert.Equal(t, []string{accounting.RuleUnbalanced}, rules(accounting.CheckEntry(entry)))
}

func TestCheckDraft_AmountPrecision(t *testing.T) {
	fine := decimal.RequireFromString("10.00005")
	entry := draft(
		domain.JournalLine{AccountID: "A", DebitAmount: fine},
		domain.JournalLine{AccountID: "B", CreditAmount: fine},
		domain.JournalLine{AccountID: "C", CreditAmount: decimal.RequireFromString("2.50000")},
	)

	violations := accounting.CheckDraft(entry)

	assert.Equal(t, []string{accounting.RuleAmountPrecision, accounting.RuleAmountPrecision}, rules(violations))
	assert.Equal(t, "lines[0].amount", violations[0].Field)
	assert.Equal(t, "lines[1].amount", violations[1].Field)
}

func TestValidateEntry_UnbalancedCitesDifference(t *testing.T) {
	err := accounting.ValidateEntry(draft(debit("A", 100), credit("B", 90)))

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, accounting.RuleUnbalanced, verr.Violations[0].Rule)
	assert.Contains(t, verr.Violations[0].Message, "differ by 10")
}

func TestCalculateSignedAmount(t *testing.T) {
	tests := []struct {
		name    string
		line    domain.JournalLine
		account domain.Account
		want    int64
	}{
		{"debit to debit-normal", debit("A", 100), cash, 100},
		{"credit to debit-normal", credit("A", 100), cash, -100},
		{"credit to credit-normal", credit("B", 60), payable, 60},
		{"debit to credit-normal", debit("B", 60), payable, -60},
		{"type default when side unset", debit("X", 5), domain.Account{AccountID: "X", AccountType: domain.Expense}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := accounting.CalculateSignedAmount(tt.line, tt.account)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "got %s", got)
		})
	}
}

func TestCalculateBalanceDeltas_SumsPerAccount(t *testing.T) {
	lines := []domain.JournalLine{debit("A", 70), debit("A", 30), credit("B", 100)}

	deltas, err := accounting.CalculateBalanceDeltas(lines, accounts)

	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, "A", deltas[0].AccountID)
	assert.True(t, deltas[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "B", deltas[1].AccountID)
	assert.True(t, deltas[1].Amount.Equal(decimal.NewFromInt(100)))
}

func TestCalculateBalanceDeltas_MissingAccount(t *testing.T) {
	_, err := accounting.CalculateBalanceDeltas([]domain.JournalLine{debit("A", 1), credit("Z", 1)}, accounts)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasRule(accounting.RuleAccountNotFound))
}

func TestPost_ThreeLineScenario(t *testing.T) {
	debitNormalB := payable
	debitNormalB.NormalBalanceSide = domain.Debit
	snapshot := map[string]domain.Account{"A": cash, "B": debitNormalB, "C": revenue}
	entry := draft(debit("A", 100), credit("B", 60), credit("C", 40))
	postedAt := time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC)

	result, err := accounting.Post(entry, snapshot, "admin-1", postedAt)

	require.NoError(t, err)
	assert.Equal(t, domain.Posted, result.Entry.Status)
	require.NotNil(t, result.Entry.PostedBy)
	assert.Equal(t, "admin-1", *result.Entry.PostedBy)
	assert.Equal(t, postedAt, *result.Entry.PostedAt)
	assert.Equal(t, domain.Draft, entry.Status, "input entry is not modified")

	want := map[string]int64{"A": 100, "B": -60, "C": 40}
	for _, d := range result.Deltas {
		assert.True(t, d.Amount.Equal(decimal.NewFromInt(want[d.AccountID])), "%s delta %s", d.AccountID, d.Amount)
	}
	assert.True(t, result.NewBalances["A"].Equal(decimal.NewFromInt(1100)))
	assert.True(t, result.NewBalances["B"].Equal(decimal.NewFromInt(240)))
	assert.True(t, result.NewBalances["C"].Equal(decimal.NewFromInt(40)))
}

func TestPost_RejectsWrongStates(t *testing.T) {
	posted := draft(debit("A", 1), credit("B", 1))
	posted.Status = domain.Posted
	_, err := accounting.Post(posted, accounts, "u", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPosted)

	voided := posted
	voided.Status = domain.Void
	_, err = accounting.Post(voided, accounts, "u", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.NotErrorIs(t, err, apperrors.ErrAlreadyPosted)
}

func TestPost_Unbalanced(t *testing.T) {
	_, err := accounting.Post(draft(debit("A", 100), credit("B", 90)), accounts, "u", time.Now())

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
