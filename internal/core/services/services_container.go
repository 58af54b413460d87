package services

import (
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	methodAccounts := MergeMethodAccounts(cfg.MethodAccounts)

	container := &portssvc.ServiceContainer{}
	container.Account = NewAccountService(repos.AccountRepo, repos.MovementRepo)
	container.Movement = NewMovementService(repos.AccountRepo, repos.MovementRepo, cfg.DefaultCreator)
	container.Resolver = NewMethodResolverService(repos.AccountRepo, methodAccounts)
	container.Posting = NewPostingService(repos.SourceRepo, repos.AccountRepo, container.Resolver, container.Movement)
	container.Reconciler = NewReconcilerService(repos.AccountRepo, repos.MovementRepo, repos.SourceRepo, methodAccounts)

	return container
}
