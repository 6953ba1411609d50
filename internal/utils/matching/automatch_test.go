package matching_test

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/utils/matching"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func bankCredit(id string, d int, amount int64) domain.BankTransaction {
	return domain.BankTransaction{BankTransactionID: id, Date: day(d), CreditAmount: decimal.NewFromInt(amount), Status: domain.Unreconciled}
}

func bankDebit(id string, d int, amount int64) domain.BankTransaction {
	return domain.BankTransaction{BankTransactionID: id, Date: day(d), DebitAmount: decimal.NewFromInt(amount), Status: domain.Unreconciled}
}

func ledgerDebit(id string, d int, amount int64) domain.LedgerTransaction {
	return domain.LedgerTransaction{LedgerTransactionID: id, Date: day(d), DebitAmount: decimal.NewFromInt(amount), Status: domain.Unreconciled}
}

func ledgerCredit(id string, d int, amount int64) domain.LedgerTransaction {
	return domain.LedgerTransaction{LedgerTransactionID: id, Date: day(d), CreditAmount: decimal.NewFromInt(amount), Status: domain.Unreconciled}
}

func TestMatch_WithinWindowPreferred(t *testing.T) {
	bank := []domain.BankTransaction{bankCredit("b1", 10, 500)}
	ledger := []domain.LedgerTransaction{ledgerDebit("far", 20, 500), ledgerDebit("near", 12, 500)}

	got := matching.NewMatcher().Match(bank, ledger)

	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].BankTransactionID)
	assert.Equal(t, "near", got[0].LedgerTransactionID)
	assert.Equal(t, 2, got[0].DateDiffDays)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(500)))
}

func TestMatch_OutsideWindowNotProposed(t *testing.T) {
	got := matching.NewMatcher().Match(
		[]domain.BankTransaction{bankCredit("b1", 10, 500)},
		[]domain.LedgerTransaction{ledgerDebit("l1", 14, 500)},
	)

	assert.Empty(t, got)
}

func TestMatch_RequiresOppositeSideAndExactAmount(t *testing.T) {
	bank := []domain.BankTransaction{
		bankCredit("b1", 10, 500),
		bankDebit("b2", 10, 75),
		{BankTransactionID: "b3", Date: day(10), CreditAmount: decimal.RequireFromString("19.99"), Status: domain.Unreconciled},
	}
	ledger := []domain.LedgerTransaction{
		ledgerCredit("same-side", 10, 500),
		ledgerCredit("l2", 11, 75),
		{LedgerTransactionID: "close-amount", Date: day(10), DebitAmount: decimal.RequireFromString("19.98"), Status: domain.Unreconciled},
	}

	got := matching.NewMatcher().Match(bank, ledger)

	require.Len(t, got, 1)
	assert.Equal(t, "b2", got[0].BankTransactionID)
	assert.Equal(t, "l2", got[0].LedgerTransactionID)
}

func TestMatch_TieBreaksOnLedgerOrder(t *testing.T) {
	bank := []domain.BankTransaction{bankCredit("b1", 10, 100)}
	ledger := []domain.LedgerTransaction{ledgerDebit("first", 9, 100), ledgerDebit("second", 11, 100)}

	got := matching.NewMatcher().Match(bank, ledger)

	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].LedgerTransactionID)
}

func TestMatch_OneToOneAndGreedy(t *testing.T) {
	bank := []domain.BankTransaction{bankCredit("b1", 10, 100), bankCredit("b2", 10, 100), bankCredit("b3", 10, 100)}
	ledger := []domain.LedgerTransaction{ledgerDebit("l1", 10, 100), ledgerDebit("l2", 12, 100)}

	got := matching.NewMatcher().Match(bank, ledger)

	require.Len(t, got, 2)
	assert.Equal(t, "l1", got[0].LedgerTransactionID)
	assert.Equal(t, "l2", got[1].LedgerTransactionID)

	seenBank := map[string]bool{}
	seenLedger := map[string]bool{}
	for _, p := range got {
		assert.False(t, seenBank[p.BankTransactionID])
		assert.False(t, seenLedger[p.LedgerTransactionID])
		seenBank[p.BankTransactionID] = true
		seenLedger[p.LedgerTransactionID] = true
	}
}

func TestMatch_SkipsNonUnreconciled(t *testing.T) {
	matchedBank := bankCredit("b1", 10, 100)
	matchedBank.Status = domain.Matched
	reconciledLedger := ledgerDebit("l1", 10, 100)
	reconciledLedger.Status = domain.Reconciled

	got := matching.NewMatcher().Match(
		[]domain.BankTransaction{matchedBank, bankCredit("b2", 10, 100)},
		[]domain.LedgerTransaction{reconciledLedger, ledgerDebit("l2", 10, 100)},
	)

	require.Len(t, got, 1)
	assert.Equal(t, "b2", got[0].BankTransactionID)
	assert.Equal(t, "l2", got[0].LedgerTransactionID)
}

func TestMatch_Deterministic(t *testing.T) {
	bank := []domain.BankTransaction{bankCredit("b1", 3, 10), bankDebit("b2", 4, 20), bankCredit("b3", 5, 10)}
	ledger := []domain.LedgerTransaction{ledgerDebit("l1", 6, 10), ledgerCredit("l2", 4, 20), ledgerDebit("l3", 2, 10)}
	m := matching.NewMatcher()

	first := m.Match(bank, ledger)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Match(bank, ledger))
	}
}

func TestWithWindowDays(t *testing.T) {
	bank := []domain.BankTransaction{bankCredit("b1", 1, 10)}
	ledger := []domain.LedgerTransaction{ledgerDebit("l1", 8, 10)}

	assert.Empty(t, matching.NewMatcher().Match(bank, ledger))
	assert.Len(t, matching.NewMatcher(matching.WithWindowDays(7)).Match(bank, ledger), 1)
	assert.Equal(t, matching.DefaultWindowDays, matching.NewMatcher(matching.WithWindowDays(0)).WindowDays())
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2026, 1, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 1, 13, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 3, matching.DaysBetween(a, b))
	assert.Equal(t, 3, matching.DaysBetween(b, a))
}
