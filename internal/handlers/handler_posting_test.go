package handlers_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock PostingService ---
type MockPostingService struct {
	mock.Mock
}

func (m *MockPostingService) movement(args mock.Arguments) (*domain.Movement, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}
func (m *MockPostingService) PostSale(ctx context.Context, saleID string, userID string) (*domain.Movement, error) {
	return m.movement(m.Called(ctx, saleID, userID))
}
func (m *MockPostingService) PostExpense(ctx context.Context, expenseID string, userID string) (*domain.Movement, error) {
	return m.movement(m.Called(ctx, expenseID, userID))
}
func (m *MockPostingService) PostPaymentRecord(ctx context.Context, paymentID string, userID string) (*domain.Movement, error) {
	return m.movement(m.Called(ctx, paymentID, userID))
}
func (m *MockPostingService) RegisterWithdrawal(ctx context.Context, req dto.RegisterWithdrawalRequest, userID string) (*domain.WithdrawalResult, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalResult), args.Error(1)
}

var _ portssvc.PostingSvcFacade = (*MockPostingService)(nil)

func (suite *HandlerTestSuite) TestPostSale_AlreadyPosted() {
	suite.mockPosting.On("PostSale", mock.Anything, "s-1", suite.testUserID).
		Return(nil, fmt.Errorf("%w: movement for sale:s-1", apperrors.ErrDuplicate)).Once()

	w := suite.do(http.MethodPost, "/api/v1/postings/sales/s-1", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestPostExpense_Success() {
	suite.mockPosting.On("PostExpense", mock.Anything, "e-1", suite.testUserID).
		Return(sampleMovement("a-1", domain.Out, 100, 0), nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/postings/expenses/e-1", nil)

	suite.Equal(http.StatusCreated, w.Code)
}

func (suite *HandlerTestSuite) TestRegisterWithdrawal_FlagsInsufficientFunds() {
	suite.mockPosting.On("RegisterWithdrawal", mock.Anything, mock.MatchedBy(func(req dto.RegisterWithdrawalRequest) bool {
		return req.PartnerID == "partner-1" && req.Amount.Equal(decimal.NewFromInt(15000))
	}), suite.testUserID).Return(&domain.WithdrawalResult{
		Movement:          *sampleMovement("a-1", domain.Out, 15000, 10000),
		BalanceBefore:     decimal.NewFromInt(10000),
		InsufficientFunds: true,
	}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/postings/withdrawals", gin.H{"partnerID": "partner-1", "amount": 15000, "paymentMethod": "efectivo"})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.WithdrawalResponse
	suite.decode(w, &resp)
	suite.True(resp.InsufficientFunds)
}
