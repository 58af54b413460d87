package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/core/services"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
	"github.com/stretchr/testify/suite"
)

type PostingServiceTestSuite struct {
	suite.Suite
	store   *memStore
	posting portssvc.PostingSvcFacade
	cashID  string
	nequiID string
}

func (suite *PostingServiceTestSuite) SetupTest() {
	suite.store = newMemStore()
	suite.cashID = suite.store.addAccount("Efectivo", domain.Cash, true)
	suite.nequiID = suite.store.addAccount("Nequi", domain.Digital, true)

	resolver := services.NewMethodResolverService(suite.store, nil)
	poster := services.NewMovementService(suite.store, suite.store, "system")
	suite.posting = services.NewPostingService(suite.store, suite.store, resolver, poster)
}

func (suite *PostingServiceTestSuite) TestPostSale_ResolvesByMethod() {
	suite.store.addSale(domain.Sale{ID: "s-1", Total: dec(45000), PaymentMethod: "Nequi", Status: "paid", InvoiceNumber: "FV-3", CreatedBy: "cashier"})

	movement, err := suite.posting.PostSale(context.Background(), "s-1", "user-9")

	suite.Require().NoError(err)
	suite.Equal(suite.nequiID, movement.AccountID)
	suite.Equal("user-9", movement.CreatedBy)
	suite.Equal(domain.SaleRef{SaleID: "s-1"}, movement.Reference)
	suite.True(dec(45000).Equal(suite.store.balance(suite.nequiID)))
}

func (suite *PostingServiceTestSuite) TestPostSale_TwiceIsDuplicate() {
	suite.store.addSale(domain.Sale{ID: "s-1", Total: dec(100), PaymentMethod: "efectivo", Status: "paid"})
	ctx := context.Background()

	_, err := suite.posting.PostSale(ctx, "s-1", "")
	suite.Require().NoError(err)
	_, err = suite.posting.PostSale(ctx, "s-1", "")

	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.Len(suite.store.movementsFor(domain.SaleRef{SaleID: "s-1"}), 1)
	suite.True(dec(100).Equal(suite.store.balance(suite.cashID)))
}

func (suite *PostingServiceTestSuite) TestPostSale_CreditRejected() {
	suite.store.addSale(domain.Sale{ID: "s-credit", Total: dec(100), PaymentMethod: "efectivo", Status: "paid", IsCredit: true})

	_, err := suite.posting.PostSale(context.Background(), "s-credit", "user-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal(0, suite.store.movementCount())
}

func (suite *PostingServiceTestSuite) TestPostSale_NotFound() {
	_, err := suite.posting.PostSale(context.Background(), "nope", "user-1")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *PostingServiceTestSuite) TestPostExpense_WithPayableRejected() {
	suite.store.addExpense(domain.Expense{ID: "e-1", Amount: dec(100), PaymentMethod: "efectivo", Concept: "Arriendo"})
	suite.store.markPayable("e-1")

	_, err := suite.posting.PostExpense(context.Background(), "e-1", "user-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal(0, suite.store.movementCount())
}

func (suite *PostingServiceTestSuite) TestPostExpense_ExplicitAccount() {
	suite.store.addExpense(domain.Expense{ID: "e-2", Amount: dec(20000), PaymentMethod: "efectivo", PaymentAccountID: strPtr(suite.nequiID), Concept: "Insumos"})

	movement, err := suite.posting.PostExpense(context.Background(), "e-2", "user-1")

	suite.Require().NoError(err)
	suite.Equal(suite.nequiID, movement.AccountID)
	suite.Equal(domain.Out, movement.Direction)
	suite.Equal("Gasto: Insumos", movement.Concept)
	suite.True(dec(-20000).Equal(suite.store.balance(suite.nequiID)))
}

func (suite *PostingServiceTestSuite) TestPostExpense_MissingExplicitAccountFallsBack() {
	suite.store.addExpense(domain.Expense{ID: "e-3", Amount: dec(100), PaymentMethod: "efectivo", PaymentAccountID: strPtr("gone"), Concept: "Aseo"})

	movement, err := suite.posting.PostExpense(context.Background(), "e-3", "user-1")

	suite.Require().NoError(err)
	suite.Equal(suite.cashID, movement.AccountID)
}

func (suite *PostingServiceTestSuite) TestPostPaymentRecord_Directions() {
	suite.store.addPayment(domain.PaymentRecord{ID: "r-1", Kind: domain.Receivable, Amount: dec(3000), PaymentMethod: "efectivo", Notes: "cliente 4"})
	suite.store.addPayment(domain.PaymentRecord{ID: "p-1", Kind: domain.Payable, Amount: dec(1000), PaymentMethod: "efectivo"})
	ctx := context.Background()

	in, err := suite.posting.PostPaymentRecord(ctx, "r-1", "user-1")
	suite.Require().NoError(err)
	suite.Equal(domain.In, in.Direction)
	suite.Equal("Abono cuenta por cobrar: cliente 4", in.Concept)

	out, err := suite.posting.PostPaymentRecord(ctx, "p-1", "user-1")
	suite.Require().NoError(err)
	suite.Equal(domain.Out, out.Direction)

	suite.True(dec(2000).Equal(suite.store.balance(suite.cashID)))
}

func (suite *PostingServiceTestSuite) TestRegisterWithdrawal_InsufficientFundsIsAdvisory() {
	ctx := context.Background()
	suite.store.addSale(domain.Sale{ID: "s-1", Total: dec(10000), PaymentMethod: "efectivo", Status: "paid"})
	_, err := suite.posting.PostSale(ctx, "s-1", "")
	suite.Require().NoError(err)

	result, err := suite.posting.RegisterWithdrawal(ctx, dto.RegisterWithdrawalRequest{
		PartnerID:     "partner-1",
		Amount:        dec(15000),
		PaymentMethod: "efectivo",
		Notes:         "anticipo",
	}, "user-1")

	suite.Require().NoError(err)
	suite.True(result.InsufficientFunds)
	suite.True(dec(10000).Equal(result.BalanceBefore))
	suite.Equal("Retiro socio: anticipo", result.Movement.Concept)
	suite.True(dec(-5000).Equal(suite.store.balance(suite.cashID)))
}

// concurrentDeposit posts a deposit on the same account right before delegating, the way another
// cashier's sale lands between the account lookup and the withdrawal.
type concurrentDeposit struct {
	portssvc.MovementPosterSvc
	amount int64
}

func (p concurrentDeposit) PostMovement(ctx context.Context, draft domain.MovementDraft) (*domain.Movement, error) {
	if _, err := p.MovementPosterSvc.PostMovement(ctx, domain.MovementDraft{
		AccountID: draft.AccountID,
		Direction: domain.In,
		Amount:    dec(p.amount),
		Concept:   "Venta mostrador",
		CreatedBy: "cashier-2",
	}); err != nil {
		return nil, err
	}
	return p.MovementPosterSvc.PostMovement(ctx, draft)
}

func (suite *PostingServiceTestSuite) TestRegisterWithdrawal_FundsCheckUsesBalanceAtPosting() {
	resolver := services.NewMethodResolverService(suite.store, nil)
	poster := concurrentDeposit{MovementPosterSvc: services.NewMovementService(suite.store, suite.store, "system"), amount: 20000}
	posting := services.NewPostingService(suite.store, suite.store, resolver, poster)

	result, err := posting.RegisterWithdrawal(context.Background(), dto.RegisterWithdrawalRequest{
		PartnerID:     "partner-1",
		Amount:        dec(15000),
		PaymentMethod: "efectivo",
	}, "user-1")

	suite.Require().NoError(err)
	suite.False(result.InsufficientFunds)
	suite.True(dec(20000).Equal(result.BalanceBefore))
	suite.True(result.Movement.PreviousBalance.Equal(result.BalanceBefore))
	suite.True(dec(5000).Equal(suite.store.balance(suite.cashID)))
}

func (suite *PostingServiceTestSuite) TestRegisterWithdrawal_RepeatsForSamePartner() {
	ctx := context.Background()
	req := dto.RegisterWithdrawalRequest{PartnerID: "partner-1", Amount: dec(100), AccountID: strPtr(suite.nequiID)}

	first, err := suite.posting.RegisterWithdrawal(ctx, req, "user-1")
	suite.Require().NoError(err)
	suite.True(first.InsufficientFunds)

	second, err := suite.posting.RegisterWithdrawal(ctx, req, "user-1")
	suite.Require().NoError(err)
	suite.Equal(suite.nequiID, second.Movement.AccountID)
	suite.Len(suite.store.movementsFor(domain.PartnerWithdrawalRef{PartnerID: "partner-1"}), 2)
}

func (suite *PostingServiceTestSuite) TestRegisterWithdrawal_Validation() {
	ctx := context.Background()

	_, err := suite.posting.RegisterWithdrawal(ctx, dto.RegisterWithdrawalRequest{Amount: dec(100)}, "user-1")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.posting.RegisterWithdrawal(ctx, dto.RegisterWithdrawalRequest{PartnerID: "partner-1", Amount: dec(0)}, "user-1")
	suite.ErrorIs(err, apperrors.ErrInvalidMovement)
	suite.Equal(0, suite.store.movementCount())
}

func TestPostingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PostingServiceTestSuite))
}
