package pgsql

import (
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	movementRepo := newPgxMovementRepository(dbPool, accountRepo)
	sourceRepo := newPgxSourceRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:  accountRepo,
		MovementRepo: movementRepo,
		SourceRepo:   sourceRepo,
	}
}
