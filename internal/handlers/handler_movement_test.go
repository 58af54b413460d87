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

// --- Mock MovementService ---
type MockMovementService struct {
	mock.Mock
}

func (m *MockMovementService) movement(args mock.Arguments) (*domain.Movement, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}
func (m *MockMovementService) GetMovement(ctx context.Context, movementID string) (*domain.Movement, error) {
	return m.movement(m.Called(ctx, movementID))
}
func (m *MockMovementService) ListMovementsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Movement, *string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	var next *string
	if v := args.Get(1); v != nil {
		next = v.(*string)
	}
	if args.Get(0) == nil {
		return nil, next, args.Error(2)
	}
	return args.Get(0).([]domain.Movement), next, args.Error(2)
}
func (m *MockMovementService) PostMovement(ctx context.Context, draft domain.MovementDraft) (*domain.Movement, error) {
	return m.movement(m.Called(ctx, draft))
}
func (m *MockMovementService) ReverseMovement(ctx context.Context, movementID string, userID string) (*domain.Movement, error) {
	return m.movement(m.Called(ctx, movementID, userID))
}
func (m *MockMovementService) ReplaceMovement(ctx context.Context, movementID string, replacement domain.MovementDraft) (*domain.Movement, error) {
	return m.movement(m.Called(ctx, movementID, replacement))
}

var _ portssvc.MovementSvcFacade = (*MockMovementService)(nil)

func (suite *HandlerTestSuite) TestListAccountMovements_Paging() {
	next := "token-2"
	suite.mockMovement.On("ListMovementsByAccount", mock.Anything, "a-1", 2, mock.MatchedBy(func(tok *string) bool {
		return tok != nil && *tok == "token-1"
	})).Return([]domain.Movement{*sampleMovement("a-1", domain.In, 10, 0)}, &next, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/a-1/movements?limit=2&nextToken=token-1", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListMovementsResponse
	suite.decode(w, &resp)
	suite.Len(resp.Movements, 1)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal(next, *resp.NextToken)
}

func (suite *HandlerTestSuite) TestListAccountMovements_LimitOutOfRange() {
	w := suite.do(http.MethodGet, "/api/v1/accounts/a-1/movements?limit=1000", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestPostMovement_Success() {
	posted := sampleMovement("a-1", domain.Out, 20000, 50000)
	suite.mockMovement.On("PostMovement", mock.Anything, mock.MatchedBy(func(d domain.MovementDraft) bool {
		return d.AccountID == "a-1" && d.Direction == domain.Out && d.Concept == "Gasto: Insumos" &&
			d.CreatedBy == suite.testUserID && d.Reference == domain.ExpenseRef{ExpenseID: "e-1"}
	})).Return(posted, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/movements", gin.H{
		"accountID":     "a-1",
		"direction":     "out",
		"amount":        "20000",
		"concept":       "Gasto: Insumos",
		"referenceType": "expense",
		"referenceID":   "e-1",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.MovementResponse
	suite.decode(w, &resp)
	suite.True(decimal.NewFromInt(50000).Equal(resp.PreviousBalance))
	suite.True(decimal.NewFromInt(30000).Equal(resp.NewBalance))
}

func (suite *HandlerTestSuite) TestPostMovement_BadDirection() {
	w := suite.do(http.MethodPost, "/api/v1/movements", gin.H{
		"accountID": "a-1", "direction": "sideways", "amount": 10, "concept": "x",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockMovement.AssertNotCalled(suite.T(), "PostMovement", mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestPostMovement_UnknownReferenceType() {
	w := suite.do(http.MethodPost, "/api/v1/movements", gin.H{
		"accountID": "a-1", "direction": "in", "amount": 10, "concept": "x", "referenceType": "invoice", "referenceID": "i-1",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestPostMovement_NonPositiveAmount() {
	suite.mockMovement.On("PostMovement", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: amount must be positive, got 0", apperrors.ErrInvalidMovement)).Once()

	w := suite.do(http.MethodPost, "/api/v1/movements", gin.H{
		"accountID": "a-1", "direction": "in", "amount": 0, "concept": "Venta",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestPostMovement_PersistenceFailureHidesCause() {
	suite.mockMovement.On("PostMovement", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewPersistenceError("failed to insert movement", fmt.Errorf("connection refused"))).Once()

	w := suite.do(http.MethodPost, "/api/v1/movements", gin.H{
		"accountID": "a-1", "direction": "in", "amount": 5, "concept": "Venta",
	})

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "connection refused")
}

func (suite *HandlerTestSuite) TestReverseMovement() {
	removed := sampleMovement("a-1", domain.In, 10, 0)
	suite.mockMovement.On("ReverseMovement", mock.Anything, removed.MovementID, suite.testUserID).Return(removed, nil).Once()

	w := suite.do(http.MethodDelete, "/api/v1/movements/"+removed.MovementID, nil)

	suite.Equal(http.StatusOK, w.Code)
}
