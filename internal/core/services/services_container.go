package services

import (
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/SscSPs/ledger_core/internal/utils/matching"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...Option) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Account service first since the others read accounts through it
	container.Account = NewAccountService(repos.AccountRepo, opts...)
	container.Journal = NewJournalService(repos.JournalRepo, container.Account, opts...)
	container.Reconciliation = NewReconciliationService(
		repos.ReconciliationRepo,
		repos.JournalRepo,
		container.Account,
		matching.NewMatcher(matching.WithWindowDays(cfg.MatchWindowDays)),
		opts...,
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade        = (*accountService)(nil)
	_ portssvc.JournalSvcFacade        = (*journalService)(nil)
	_ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)
)
