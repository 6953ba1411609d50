package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// BalanceSide is the debit or credit side of a ledger line or an account's normal balance.
type BalanceSide string

const (
	Debit  BalanceSide = "DEBIT"
	Credit BalanceSide = "CREDIT"
)

// Opposite returns the other side.
func (s BalanceSide) Opposite() BalanceSide {
	if s == Debit {
		return Credit
	}
	return Debit
}

// MaxAmountScale is the number of decimal places stored for every amount.
const MaxAmountScale = 4

// WithinScale reports whether d needs no more than MaxAmountScale decimal places.
// Trailing zeros do not count: 10.50000 is within scale.
func WithinScale(d decimal.Decimal) bool {
	return d.Truncate(MaxAmountScale).Equal(d)
}

// DefaultNormalBalanceSide returns the conventional normal side for an account type.
// ASSET and EXPENSE accounts are debit-normal; LIABILITY, EQUITY and REVENUE are credit-normal.
func DefaultNormalBalanceSide(t AccountType) (BalanceSide, bool) {
	switch t {
	case Asset, Expense:
		return Debit, true
	case Liability, Equity, Revenue:
		return Credit, true
	default:
		return "", false
	}
}

// Account is the ledger's view of an account owned by the account registry.
// Balance is the signed sum of posted lines, oriented per NormalBalanceSide.
type Account struct {
	AccountID         string          `json:"accountID"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	AccountType       AccountType     `json:"accountType"`
	NormalBalanceSide BalanceSide     `json:"normalBalanceSide"`
	Balance           decimal.Decimal `json:"balance"`
	AuditFields
}

// NormalSide returns the account's normal balance side, falling back to the type default.
func (a Account) NormalSide() (BalanceSide, bool) {
	if a.NormalBalanceSide == Debit || a.NormalBalanceSide == Credit {
		return a.NormalBalanceSide, true
	}
	return DefaultNormalBalanceSide(a.AccountType)
}

// BalanceDelta is a signed change to one account's balance.
type BalanceDelta struct {
	AccountID string          `json:"accountID"`
	Amount    decimal.Decimal `json:"amount"`
}
