package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
)

type movementService struct {
	BaseService
	accountRepo    portsrepo.AccountReader
	movementRepo   portsrepo.MovementRepositoryFacade
	defaultCreator string
}

// NewMovementService creates the movement poster. defaultCreator is recorded on drafts without a creator.
func NewMovementService(accountRepo portsrepo.AccountReader, movementRepo portsrepo.MovementRepositoryFacade, defaultCreator string) portssvc.MovementSvcFacade {
	return &movementService{accountRepo: accountRepo, movementRepo: movementRepo, defaultCreator: defaultCreator}
}

var _ portssvc.MovementSvcFacade = (*movementService)(nil)

func (s *movementService) withCreator(draft domain.MovementDraft) domain.MovementDraft {
	if draft.CreatedBy == "" {
		draft.CreatedBy = s.defaultCreator
	}
	return draft
}

func draftAttrs(draft domain.MovementDraft) []any {
	attrs := []any{
		slog.String("account_id", draft.AccountID),
		slog.String("direction", string(draft.Direction)),
		slog.String("amount", draft.Amount.String()),
	}
	if draft.Reference != nil {
		attrs = append(attrs, slog.String("reference", draft.Reference.Key().String()))
	}
	return attrs
}

// PostMovement validates the draft and posts it. Overdrafts are recorded, not rejected.
func (s *movementService) PostMovement(ctx context.Context, draft domain.MovementDraft) (*domain.Movement, error) {
	if err := draft.Validate(); err != nil {
		s.LogDebug(ctx, "Rejected movement draft", append(draftAttrs(draft), slog.String("error", err.Error()))...)
		return nil, err
	}
	draft = s.withCreator(draft)

	movement, err := s.movementRepo.PostMovement(ctx, draft)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to post movement", draftAttrs(draft)...)
		return nil, err
	}

	if movement.NewBalance.IsNegative() {
		s.LogWarn(ctx, "Account balance is negative after movement",
			slog.String("account_id", movement.AccountID),
			slog.String("new_balance", movement.NewBalance.String()))
	}
	s.LogInfo(ctx, "Movement posted",
		slog.String("movement_id", movement.MovementID),
		slog.String("account_id", movement.AccountID),
		slog.String("previous_balance", movement.PreviousBalance.String()),
		slog.String("new_balance", movement.NewBalance.String()))
	return movement, nil
}

func (s *movementService) GetMovement(ctx context.Context, movementID string) (*domain.Movement, error) {
	movement, err := s.movementRepo.FindMovementByID(ctx, movementID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to find movement", slog.String("movement_id", movementID))
		return nil, err
	}
	return movement, nil
}

func (s *movementService) ListMovementsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Movement, *string, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		s.LogUnexpected(ctx, err, "Failed to find account for movement listing", slog.String("account_id", accountID))
		return nil, nil, err
	}

	movements, next, err := s.movementRepo.ListMovementsByAccount(ctx, accountID, limit, nextToken)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to list movements", slog.String("account_id", accountID))
		return nil, nil, err
	}
	if movements == nil {
		movements = []domain.Movement{}
	}
	return movements, next, nil
}

func (s *movementService) ReverseMovement(ctx context.Context, movementID string, userID string) (*domain.Movement, error) {
	if userID == "" {
		userID = s.defaultCreator
	}
	removed, err := s.movementRepo.ReverseMovement(ctx, movementID, userID)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to reverse movement", slog.String("movement_id", movementID))
		return nil, err
	}
	s.LogInfo(ctx, "Movement reversed",
		slog.String("movement_id", movementID),
		slog.String("account_id", removed.AccountID),
		slog.String("user_id", userID))
	return removed, nil
}

func (s *movementService) ReplaceMovement(ctx context.Context, movementID string, replacement domain.MovementDraft) (*domain.Movement, error) {
	if err := replacement.Validate(); err != nil {
		return nil, err
	}
	replacement = s.withCreator(replacement)

	movement, err := s.movementRepo.ReplaceMovement(ctx, movementID, replacement)
	if err != nil {
		s.LogUnexpected(ctx, err, "Failed to replace movement", append(draftAttrs(replacement), slog.String("movement_id", movementID))...)
		return nil, err
	}
	s.LogInfo(ctx, "Movement replaced",
		slog.String("replaced_movement_id", movementID),
		slog.String("movement_id", movement.MovementID))
	return movement, nil
}
