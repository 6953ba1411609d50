// Package matching proposes pairings between bank statement lines and ledger lines.
//
// The matcher is a single-pass greedy heuristic, not an optimal assignment: bank lines are
// visited in statement order and each takes the best remaining ledger candidate.
package matching

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// DefaultWindowDays is the maximum calendar-day distance between matched transactions.
const DefaultWindowDays = 3

// Matcher proposes one-to-one matches between Unreconciled transactions.
type Matcher struct {
	windowDays int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWindowDays sets the date window. Non-positive values keep the default.
func WithWindowDays(days int) Option {
	return func(m *Matcher) {
		if days > 0 {
			m.windowDays = days
		}
	}
}

// NewMatcher creates a Matcher with the default 3 day window unless overridden.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{windowDays: DefaultWindowDays}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WindowDays returns the configured window.
func (m *Matcher) WindowDays() int {
	return m.windowDays
}

// Match returns proposals for the Unreconciled bank transactions, in bank order.
//
// A candidate must be Unreconciled, have the same amount on the opposite side (a bank
// credit pairs with a ledger debit and vice versa) and lie within the window. Among
// candidates the smallest date difference wins, then the earliest in ledger order.
// A ledger transaction is proposed at most once per call.
func (m *Matcher) Match(bank []domain.BankTransaction, ledger []domain.LedgerTransaction) []domain.MatchProposal {
	used := make([]bool, len(ledger))
	proposals := make([]domain.MatchProposal, 0)

	for _, b := range bank {
		if b.Status != domain.Unreconciled {
			continue
		}
		bankSide, bankAmount, ok := b.Side()
		if !ok {
			continue
		}

		best, bestDiff := -1, 0
		for i, l := range ledger {
			if used[i] || l.Status != domain.Unreconciled {
				continue
			}
			ledgerSide, ledgerAmount, ok := l.Side()
			if !ok || ledgerSide != bankSide.Opposite() || !ledgerAmount.Equal(bankAmount) {
				continue
			}
			diff := DaysBetween(b.Date, l.Date)
			if diff > m.windowDays {
				continue
			}
			// Strict less-than keeps the earliest ledger candidate on ties.
			if best < 0 || diff < bestDiff {
				best, bestDiff = i, diff
			}
		}

		if best < 0 {
			continue
		}
		used[best] = true
		proposals = append(proposals, domain.MatchProposal{
			BankTransactionID:   b.BankTransactionID,
			LedgerTransactionID: ledger[best].LedgerTransactionID,
			Amount:              bankAmount,
			DateDiffDays:        bestDiff,
		})
	}
	return proposals
}

// DaysBetween returns the absolute number of calendar days between two dates,
// ignoring the time of day.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(da.Sub(db).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
