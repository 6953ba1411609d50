package models

import (
	"github.com/shopspring/decimal"
)

// Account represents a row of the accounts table.
// NormalBalanceSide is empty when the registry relies on the account type default.
type Account struct {
	AccountID         string          `db:"account_id"`
	Code              string          `db:"code"`
	Name              string          `db:"name"`
	AccountType       string          `db:"account_type"`
	NormalBalanceSide string          `db:"normal_balance_side"`
	AuditFields                       // Embed common audit fields
	Balance           decimal.Decimal `db:"balance"` // Persisted signed balance
}
