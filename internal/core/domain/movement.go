package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Direction indicates whether a movement adds money to or removes money from an account.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// Valid reports whether d is In or Out.
func (d Direction) Valid() bool {
	return d == In || d == Out
}

// Signed returns amount with the sign of the direction: positive for In, negative for Out.
func (d Direction) Signed(amount decimal.Decimal) decimal.Decimal {
	if d == Out {
		return amount.Neg()
	}
	return amount
}

// Apply returns the balance after moving amount in direction d from previous.
// Negative results are allowed; overdrafts are recorded, not blocked.
func (d Direction) Apply(previous, amount decimal.Decimal) decimal.Decimal {
	return previous.Add(d.Signed(amount))
}

// Inverse returns the opposite direction.
func (d Direction) Inverse() Direction {
	if d == In {
		return Out
	}
	return In
}

// Movement is an immutable record of one balance change.
type Movement struct {
	MovementID      string          `json:"movementID"`
	AccountID       string          `json:"accountID"`
	Direction       Direction       `json:"direction"`
	Amount          decimal.Decimal `json:"amount"` // Always positive
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NewBalance      decimal.Decimal `json:"newBalance"`
	Concept         string          `json:"concept"`
	Reference       Reference       `json:"-"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Delta is the signed effect of the movement on its account balance.
func (m Movement) Delta() decimal.Decimal {
	return m.Direction.Signed(m.Amount)
}

// MovementDraft is a movement that has not been posted yet.
type MovementDraft struct {
	AccountID string
	Direction Direction
	Amount    decimal.Decimal
	Concept   string
	Reference Reference // Optional
	CreatedBy string    // Optional
}

// Validate checks the preconditions of posting the draft.
func (d MovementDraft) Validate() error {
	if strings.TrimSpace(d.AccountID) == "" {
		return fmt.Errorf("%w: account id is required", apperrors.ErrInvalidMovement)
	}
	if !d.Direction.Valid() {
		return fmt.Errorf("%w: unknown direction %q", apperrors.ErrInvalidMovement, d.Direction)
	}
	if !d.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrInvalidMovement, d.Amount.String())
	}
	if strings.TrimSpace(d.Concept) == "" {
		return fmt.Errorf("%w: concept is required", apperrors.ErrInvalidMovement)
	}
	return nil
}
