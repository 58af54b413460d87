package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
	"github.com/google/uuid"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo  portsrepo.AccountRepositoryFacade
	movementRepo portsrepo.MovementWriter
}

// NewAccountService creates a new account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, movementRepo portsrepo.MovementWriter) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo, movementRepo: movementRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, *domain.Movement, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}
	if !req.Kind.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown account kind %q", apperrors.ErrValidation, req.Kind)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:   uuid.NewString(),
		Name:        name,
		Kind:        req.Kind,
		IsActive:    true,
		AuditFields: domain.NewAuditFields(userID, now),
	}

	var opening *domain.MovementDraft
	if draft, ok := domain.OpeningBalanceDraft(account.AccountID, req.OpeningBalance, userID); ok {
		opening = &draft
	}

	movement, err := s.movementRepo.OpenAccount(ctx, account, opening)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to open account", slog.String("name", name))
		return nil, nil, err
	}
	if movement != nil {
		account.Balance = movement.NewBalance
	}

	s.LogInfo(ctx, "Account created",
		slog.String("account_id", account.AccountID),
		slog.String("kind", string(account.Kind)),
		slog.String("opening_balance", account.Balance.String()))
	return &account, movement, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to find account", slog.String("account_id", accountID))
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, includeInactive bool) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, includeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	s.LogDebug(ctx, "Accounts listed", slog.Int("count", len(accounts)))
	return accounts, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to find account for update", slog.String("account_id", accountID))
		return nil, err
	}

	changed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: account name cannot be empty", apperrors.ErrValidation)
		}
		if name != account.Name {
			account.Name = name
			changed = true
		}
	}
	if req.Kind != nil {
		if !req.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown account kind %q", apperrors.ErrValidation, *req.Kind)
		}
		if *req.Kind != account.Kind {
			account.Kind = *req.Kind
			changed = true
		}
	}
	if !changed {
		return account, nil
	}

	account.Touch(userID, time.Now().UTC())
	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		s.LogUnexpected(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account updated", slog.String("account_id", accountID))
	return account, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now().UTC()); err != nil {
		s.LogUnexpected(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		return err
	}
	s.LogInfo(ctx, "Account deactivated", slog.String("account_id", accountID))
	return nil
}

func (s *accountService) DeleteAccount(ctx context.Context, accountID string) error {
	if err := s.accountRepo.DeleteAccount(ctx, accountID); err != nil {
		s.LogUnexpected(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
		return err
	}
	s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID))
	return nil
}
