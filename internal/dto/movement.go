package dto

import (
	"time"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateMovementRequest defines a direct posting against an account.
type CreateMovementRequest struct {
	AccountID     string           `json:"accountID" binding:"required"`
	Direction     domain.Direction `json:"direction" binding:"required,movement_direction"`
	Amount        decimal.Decimal  `json:"amount"`
	Concept       string           `json:"concept" binding:"required"`
	ReferenceType string           `json:"referenceType" binding:"required_with=ReferenceID"`
	ReferenceID   string           `json:"referenceID" binding:"required_with=ReferenceType"`
}

// ToDraft converts the request into a movement draft created by userID.
func (r CreateMovementRequest) ToDraft(userID string) (domain.MovementDraft, error) {
	ref, err := domain.ParseReference(r.ReferenceType, r.ReferenceID)
	if err != nil {
		return domain.MovementDraft{}, err
	}
	return domain.MovementDraft{
		AccountID: r.AccountID,
		Direction: r.Direction,
		Amount:    r.Amount,
		Concept:   r.Concept,
		Reference: ref,
		CreatedBy: userID,
	}, nil
}

// MovementResponse defines the data returned for a movement.
type MovementResponse struct {
	MovementID      string           `json:"movementID"`
	AccountID       string           `json:"accountID"`
	Direction       domain.Direction `json:"direction"`
	Amount          decimal.Decimal  `json:"amount"`
	PreviousBalance decimal.Decimal  `json:"previousBalance"`
	NewBalance      decimal.Decimal  `json:"newBalance"`
	Concept         string           `json:"concept"`
	ReferenceType   string           `json:"referenceType,omitempty"`
	ReferenceID     string           `json:"referenceID,omitempty"`
	CreatedBy       string           `json:"createdBy"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// ToMovementResponse converts a domain.Movement to MovementResponse DTO
func ToMovementResponse(m *domain.Movement) MovementResponse {
	res := MovementResponse{
		MovementID:      m.MovementID,
		AccountID:       m.AccountID,
		Direction:       m.Direction,
		Amount:          m.Amount,
		PreviousBalance: m.PreviousBalance,
		NewBalance:      m.NewBalance,
		Concept:         m.Concept,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
	if m.Reference != nil {
		key := m.Reference.Key()
		res.ReferenceType = string(key.Type)
		res.ReferenceID = key.ID
	}
	return res
}

// ToListMovementResponse converts a slice of domain.Movement to a slice of MovementResponse DTOs
func ToListMovementResponse(movements []domain.Movement) []MovementResponse {
	res := make([]MovementResponse, len(movements))
	for i := range movements {
		res[i] = ToMovementResponse(&movements[i])
	}
	return res
}

// ListMovementsParams defines query parameters for listing movements.
type ListMovementsParams struct {
	Limit     int    `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// ListMovementsResponse wraps a page of movements.
type ListMovementsResponse struct {
	Movements []MovementResponse `json:"movements"`
	NextToken *string            `json:"nextToken,omitempty"`
}
