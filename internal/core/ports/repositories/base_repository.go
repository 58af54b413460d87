package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager is implemented by repositories whose writes can join a caller's pgx transaction,
// such as the account row locks taken while a movement is posted.
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	// Rollback is a no-op on a committed transaction, so it can always be deferred.
	Rollback(ctx context.Context, tx pgx.Tx) error
}
