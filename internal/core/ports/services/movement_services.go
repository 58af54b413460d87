package services

import (
	"context"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
)

// MovementReaderSvc defines read operations for the movement log
type MovementReaderSvc interface {
	// GetMovement retrieves a movement by its ID.
	GetMovement(ctx context.Context, movementID string) (*domain.Movement, error)

	// ListMovementsByAccount retrieves a page of an account's movements, newest first.
	ListMovementsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Movement, *string, error)
}

// MovementPosterSvc records balance changes.
type MovementPosterSvc interface {
	// PostMovement appends a movement and updates the account balance atomically.
	PostMovement(ctx context.Context, draft domain.MovementDraft) (*domain.Movement, error)

	// ReverseMovement deletes a movement and reverts its balance effect.
	ReverseMovement(ctx context.Context, movementID string, userID string) (*domain.Movement, error)

	// ReplaceMovement corrects a movement by reversing it and posting the replacement atomically.
	ReplaceMovement(ctx context.Context, movementID string, replacement domain.MovementDraft) (*domain.Movement, error)
}

// MovementSvcFacade combines all movement-related service interfaces
type MovementSvcFacade interface {
	MovementReaderSvc
	MovementPosterSvc
}
