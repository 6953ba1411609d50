package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID         string             `json:"accountID"`
	Code              string             `json:"code"`
	Name              string             `json:"name"`
	AccountType       domain.AccountType `json:"accountType"`
	NormalBalanceSide domain.BalanceSide `json:"normalBalanceSide"`
	Balance           decimal.Decimal    `json:"balance"`
	CreatedAt         time.Time          `json:"createdAt"`
	LastUpdatedAt     time.Time          `json:"lastUpdatedAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
// The normal side falls back to the account type default when the registry left it blank.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	side, _ := acc.NormalSide()
	return AccountResponse{
		AccountID:         acc.AccountID,
		Code:              acc.Code,
		Name:              acc.Name,
		AccountType:       acc.AccountType,
		NormalBalanceSide: side,
		Balance:           acc.Balance,
		CreatedAt:         acc.CreatedAt,
		LastUpdatedAt:     acc.LastUpdatedAt,
	}
}
