package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
)

// postingService posts the movement of one business event as it happens.
type postingService struct {
	BaseService
	sourceRepo  portsrepo.SourceRepositoryFacade
	accountRepo portsrepo.AccountReader
	resolver    portssvc.MethodResolverSvc
	poster      portssvc.MovementPosterSvc
}

// NewPostingService creates the business posting service.
func NewPostingService(
	sourceRepo portsrepo.SourceRepositoryFacade,
	accountRepo portsrepo.AccountReader,
	resolver portssvc.MethodResolverSvc,
	poster portssvc.MovementPosterSvc,
) portssvc.PostingSvcFacade {
	return &postingService{
		sourceRepo:  sourceRepo,
		accountRepo: accountRepo,
		resolver:    resolver,
		poster:      poster,
	}
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// accountFor returns the explicit account when it exists and is active, otherwise the account resolved
// from the payment method.
func (s *postingService) accountFor(ctx context.Context, explicit *string, method string) (*domain.Account, error) {
	if explicit != nil && *explicit != "" {
		account, err := s.accountRepo.FindAccountByID(ctx, *explicit)
		switch {
		case err == nil && account.IsActive:
			return account, nil
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			return nil, err
		}
		s.LogWarn(ctx, "Explicit payment account unusable, resolving by method",
			slog.String("account_id", *explicit),
			slog.String("method", method))
	}

	accountID, err := s.resolver.ResolveAccountForMethod(ctx, method)
	if err != nil {
		return nil, err
	}
	return s.accountRepo.FindAccountByID(ctx, accountID)
}

func (s *postingService) post(ctx context.Context, draft domain.MovementDraft, explicit *string, method, userID string) (*domain.Movement, error) {
	account, err := s.accountFor(ctx, explicit, method)
	if err != nil {
		return nil, err
	}
	draft.AccountID = account.AccountID
	if userID != "" {
		draft.CreatedBy = userID
	}
	return s.poster.PostMovement(ctx, draft)
}

func (s *postingService) PostSale(ctx context.Context, saleID string, userID string) (*domain.Movement, error) {
	sale, err := s.sourceRepo.FindSaleByID(ctx, saleID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to load sale", slog.String("sale_id", saleID))
		return nil, err
	}
	if !sale.Postable() {
		return nil, fmt.Errorf("%w: sale %s is on credit or not paid", apperrors.ErrValidation, saleID)
	}

	movement, err := s.post(ctx, domain.SaleDraft(*sale), sale.PaymentAccountID, sale.PaymentMethod, userID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to post sale", slog.String("sale_id", saleID))
		return nil, err
	}
	return movement, nil
}

func (s *postingService) PostExpense(ctx context.Context, expenseID string, userID string) (*domain.Movement, error) {
	expense, err := s.sourceRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to load expense", slog.String("expense_id", expenseID))
		return nil, err
	}
	if expense.HasPayable {
		return nil, fmt.Errorf("%w: expense %s is tracked as an account payable", apperrors.ErrValidation, expenseID)
	}

	movement, err := s.post(ctx, domain.ExpenseDraft(*expense), expense.PaymentAccountID, expense.PaymentMethod, userID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to post expense", slog.String("expense_id", expenseID))
		return nil, err
	}
	return movement, nil
}

func (s *postingService) PostPaymentRecord(ctx context.Context, paymentID string, userID string) (*domain.Movement, error) {
	payment, err := s.sourceRepo.FindPaymentRecordByID(ctx, paymentID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to load payment record", slog.String("payment_id", paymentID))
		return nil, err
	}

	movement, err := s.post(ctx, domain.PaymentRecordDraft(*payment), payment.PaymentAccountID, payment.PaymentMethod, userID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to post payment record",
			slog.String("payment_id", paymentID),
			slog.String("kind", string(payment.Kind)))
		return nil, err
	}
	return movement, nil
}

// RegisterWithdrawal posts a partner withdrawal. The funds check uses the balance the movement was
// applied to under the row lock and never blocks the withdrawal.
func (s *postingService) RegisterWithdrawal(ctx context.Context, req dto.RegisterWithdrawalRequest, userID string) (*domain.WithdrawalResult, error) {
	if req.PartnerID == "" {
		return nil, fmt.Errorf("%w: partner id is required", apperrors.ErrValidation)
	}

	account, err := s.accountFor(ctx, req.AccountID, req.PaymentMethod)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to resolve withdrawal account", slog.String("partner_id", req.PartnerID))
		return nil, err
	}

	draft := domain.PartnerWithdrawalDraft(req.PartnerID, account.AccountID, req.Amount, req.Notes, userID)
	movement, err := s.poster.PostMovement(ctx, draft)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to post partner withdrawal", slog.String("partner_id", req.PartnerID))
		return nil, err
	}

	insufficient := movement.PreviousBalance.LessThan(movement.Amount)
	if insufficient {
		s.LogWarn(ctx, "Partner withdrawal exceeds available balance",
			slog.String("partner_id", req.PartnerID),
			slog.String("account_id", account.AccountID),
			slog.String("balance", movement.PreviousBalance.String()),
			slog.String("amount", movement.Amount.String()))
	}
	return &domain.WithdrawalResult{
		Movement:          *movement,
		BalanceBefore:     movement.PreviousBalance,
		InsufficientFunds: insufficient,
	}, nil
}
