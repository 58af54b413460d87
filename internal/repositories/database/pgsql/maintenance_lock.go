package pgsql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
)

// maintenanceLockKey identifies the session-level advisory lock held during reconciliation.
const maintenanceLockKey int64 = 0x6c65646765720001

// WithMaintenanceLock runs fn while holding a Postgres advisory lock on a dedicated connection.
// A second caller, in this process or another, gets apperrors.ErrConflict instead of waiting.
func (r *PgxMovementRepository) WithMaintenanceLock(ctx context.Context, fn func(ctx context.Context) error) error {
	conn, err := r.Pool.Acquire(ctx)
	if err != nil {
		return apperrors.NewPersistenceError("failed to acquire connection for maintenance lock", err)
	}
	defer conn.Release()

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1);`, maintenanceLockKey).Scan(&acquired); err != nil {
		return apperrors.NewPersistenceError("failed to take maintenance lock", err)
	}
	if !acquired {
		return fmt.Errorf("%w: a reconciliation run is already in progress", apperrors.ErrConflict)
	}

	defer func() {
		// The caller's context may already be cancelled; the lock must still be released.
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1);`, maintenanceLockKey); err != nil {
			slog.Error("Failed to release maintenance lock", slog.String("error", err.Error()))
		}
	}()

	return fn(ctx)
}
