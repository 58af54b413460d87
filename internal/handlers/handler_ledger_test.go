package handlers_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock resolver and reconciler ---
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveAccountForMethod(ctx context.Context, method string) (string, error) {
	args := m.Called(ctx, method)
	return args.String(0), args.Error(1)
}

var _ portssvc.MethodResolverSvc = (*MockResolver)(nil)

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileHistory(ctx context.Context, defaultCreator string) (domain.ReconcileResult, error) {
	args := m.Called(ctx, defaultCreator)
	return args.Get(0).(domain.ReconcileResult), args.Error(1)
}
func (m *MockReconciler) VerifyBalances(ctx context.Context) ([]domain.BalanceRecomputation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BalanceRecomputation), args.Error(1)
}

var _ portssvc.ReconcilerSvc = (*MockReconciler)(nil)

func (suite *HandlerTestSuite) TestResolveAccount_NoActiveAccounts() {
	suite.mockResolver.On("ResolveAccountForMethod", mock.Anything, "efectivo").
		Return("", fmt.Errorf("%w: no active accounts", apperrors.ErrAccountNotFound)).Once()

	w := suite.do(http.MethodGet, "/api/v1/ledger/resolve?method=efectivo", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestReconcile_PartialFailure() {
	suite.mockReconciler.On("ReconcileHistory", mock.Anything, "system").Return(domain.ReconcileResult{
		Created: 3,
		Skipped: 1,
		Errors:  []string{"sale s-9: invalid movement: amount must be positive, got 0"},
	}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/ledger/reconcile", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ReconcileResponse
	suite.decode(w, &resp)
	suite.Equal(3, resp.Created)
	suite.True(resp.PartialFailure)
	suite.Len(resp.Errors, 1)
}

func (suite *HandlerTestSuite) TestReconcile_CreatorOverrideAndDeadline() {
	suite.mockReconciler.On("ReconcileHistory", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), "importer").Return(domain.ReconcileResult{}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/ledger/reconcile?createdBy=importer", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ReconcileResponse
	suite.decode(w, &resp)
	suite.NotNil(resp.Errors)
	suite.mockReconciler.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestReconcile_AlreadyRunning() {
	suite.mockReconciler.On("ReconcileHistory", mock.Anything, "system").
		Return(domain.ReconcileResult{}, fmt.Errorf("%w: a reconciliation run is already in progress", apperrors.ErrConflict)).Once()

	w := suite.do(http.MethodPost, "/api/v1/ledger/reconcile", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestVerifyBalances() {
	suite.mockReconciler.On("VerifyBalances", mock.Anything).Return([]domain.BalanceRecomputation{
		{AccountID: "a-1", Stored: decimal.NewFromInt(30000), Computed: decimal.NewFromInt(30000)},
		{AccountID: "a-2", Stored: decimal.NewFromInt(10), Computed: decimal.Zero},
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/ledger/verify", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.VerifyBalancesResponse
	suite.decode(w, &resp)
	suite.False(resp.Consistent)
	suite.Len(resp.Accounts, 2)
}
