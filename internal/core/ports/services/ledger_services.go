package services

import (
	"context"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
)

// MethodResolverSvc maps a payment method to the account it posts to.
type MethodResolverSvc interface {
	// ResolveAccountForMethod returns the active account for method, falling back to the oldest active account.
	// It fails with apperrors.ErrAccountNotFound only when no account is active.
	ResolveAccountForMethod(ctx context.Context, method string) (string, error)
}

// PostingSvcFacade posts the movement of a single business event.
type PostingSvcFacade interface {
	PostSale(ctx context.Context, saleID string, userID string) (*domain.Movement, error)
	PostExpense(ctx context.Context, expenseID string, userID string) (*domain.Movement, error)
	PostPaymentRecord(ctx context.Context, paymentID string, userID string) (*domain.Movement, error)
	RegisterWithdrawal(ctx context.Context, req dto.RegisterWithdrawalRequest, userID string) (*domain.WithdrawalResult, error)
}

// ReconcilerSvc rebuilds missing movements from business history and recomputes balances.
type ReconcilerSvc interface {
	// ReconcileHistory backfills movements for unlinked business records, then recomputes every active
	// account balance. Per-record failures are reported in the result; the returned error is reserved for
	// failures that stop the run.
	ReconcileHistory(ctx context.Context, defaultCreator string) (domain.ReconcileResult, error)

	// VerifyBalances compares stored balances with the movement log without changing anything.
	VerifyBalances(ctx context.Context) ([]domain.BalanceRecomputation, error)
}
