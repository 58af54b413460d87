package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the operation cannot run because of the current state (e.g. a maintenance run in progress).
var ErrConflict = errors.New("conflicting operation in progress")

// ErrAccountNotFound indicates the referenced account does not exist, or that no active account is available.
var ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)

// ErrInvalidMovement indicates a movement request with a non-positive amount or missing required fields.
var ErrInvalidMovement = fmt.Errorf("%w: invalid movement", ErrValidation)

// ErrPersistence indicates a storage-layer read or write failure.
var ErrPersistence = errors.New("persistence failure")

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap exposes the cause so errors.Is/As keep working through AppError.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewPersistenceError wraps a storage error so it matches ErrPersistence.
func NewPersistenceError(message string, err error) *AppError {
	if err == nil {
		return NewAppError(http.StatusInternalServerError, message, ErrPersistence)
	}
	return NewAppError(http.StatusInternalServerError, message, fmt.Errorf("%w: %w", ErrPersistence, err))
}

// NewNotFoundError returns an AppError matching ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}
