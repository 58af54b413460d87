package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestTaxonomy(t *testing.T) {
	assert.ErrorIs(t, apperrors.ErrAccountNotFound, apperrors.ErrNotFound)
	assert.ErrorIs(t, apperrors.ErrInvalidMovement, apperrors.ErrValidation)
	assert.NotErrorIs(t, apperrors.ErrInvalidMovement, apperrors.ErrNotFound)
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("post movement: %w", apperrors.NewPersistenceError("failed to insert movement", cause))

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.ErrorIs(t, err, cause)

	var appErr *apperrors.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, 500, appErr.Code)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNotFoundError(t *testing.T) {
	err := apperrors.NewNotFoundError("movement m-1 not found")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "movement m-1 not found: resource not found", err.Error())
}
