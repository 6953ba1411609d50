package mapping

import (
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:         d.AccountID,
		Code:              d.Code,
		Name:              d.Name,
		AccountType:       string(d.AccountType),
		NormalBalanceSide: string(d.NormalBalanceSide),
		AuditFields:       ToModelAuditFields(d.AuditFields),
		Balance:           d.Balance,
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:         m.AccountID,
		Code:              m.Code,
		Name:              m.Name,
		AccountType:       domain.AccountType(m.AccountType),
		NormalBalanceSide: domain.BalanceSide(m.NormalBalanceSide),
		Balance:           m.Balance,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}
