package repositories

import (
	"context"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MovementReader defines read operations for the movement log
type MovementReader interface {
	// FindMovementByID retrieves a specific movement by its unique identifier.
	FindMovementByID(ctx context.Context, movementID string) (*domain.Movement, error)

	// ListMovementsByAccount retrieves a page of movements for an account, newest first, using token-based pagination.
	// It returns the movements, a token for the next page, and an error.
	ListMovementsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Movement, *string, error)

	// ListReferenceKeys returns every (reference_type, reference_id) pair present in the log.
	ListReferenceKeys(ctx context.Context) (domain.ReferenceKeySet, error)

	// SumMovementsByAccount returns the totals of in and out movements of an account.
	SumMovementsByAccount(ctx context.Context, accountID string) (totalIn decimal.Decimal, totalOut decimal.Decimal, err error)
}

// MovementWriter defines the balance-affecting write operations. Each one runs in a single
// database transaction holding a row lock on every account it touches.
type MovementWriter interface {
	// PostMovement appends a movement and updates the owning account balance atomically.
	PostMovement(ctx context.Context, draft domain.MovementDraft) (*domain.Movement, error)

	// ReverseMovement deletes a movement and reverts its effect on the account balance.
	ReverseMovement(ctx context.Context, movementID string, userID string) (*domain.Movement, error)

	// ReplaceMovement deletes a movement, reverts its effect and posts the replacement.
	ReplaceMovement(ctx context.Context, movementID string, replacement domain.MovementDraft) (*domain.Movement, error)

	// OpenAccount persists a new account together with its optional opening-balance movement.
	OpenAccount(ctx context.Context, account domain.Account, opening *domain.MovementDraft) (*domain.Movement, error)
}

// MovementBackfiller defines the operations used by the historical reconciler.
type MovementBackfiller interface {
	// InsertSynthesizedMovement inserts a movement with placeholder balance snapshots without touching the account balance.
	InsertSynthesizedMovement(ctx context.Context, draft domain.MovementDraft) (*domain.Movement, error)

	// RecomputeAccountBalance locks the account, sums its movements and writes the result as the balance.
	RecomputeAccountBalance(ctx context.Context, accountID string, userID string) (domain.BalanceRecomputation, error)
}

// MaintenanceLocker serialises maintenance runs across processes.
type MaintenanceLocker interface {
	// WithMaintenanceLock runs fn while holding the maintenance lock. It fails with apperrors.ErrConflict
	// when another run holds the lock.
	WithMaintenanceLock(ctx context.Context, fn func(ctx context.Context) error) error
}

// MovementRepositoryFacade combines all movement-related repository interfaces
type MovementRepositoryFacade interface {
	MovementReader
	MovementWriter
	MovementBackfiller
	MaintenanceLocker
}

// MovementRepositoryWithTx extends MovementRepositoryFacade with transaction capabilities
type MovementRepositoryWithTx interface {
	MovementRepositoryFacade
	TransactionManager
}
