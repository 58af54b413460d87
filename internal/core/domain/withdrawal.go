package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PartnerWithdrawalDraft derives the movement of money taken out by a partner.
func PartnerWithdrawalDraft(partnerID, accountID string, amount decimal.Decimal, notes, createdBy string) MovementDraft {
	concept := "Retiro socio"
	if notes = strings.TrimSpace(notes); notes != "" {
		concept += ": " + notes
	}
	return MovementDraft{
		AccountID: accountID,
		Direction: Out,
		Amount:    amount,
		Concept:   concept,
		Reference: PartnerWithdrawalRef{PartnerID: partnerID},
		CreatedBy: createdBy,
	}
}

// WithdrawalResult is the outcome of registering a partner withdrawal.
// InsufficientFunds is advisory: the withdrawal is posted regardless.
type WithdrawalResult struct {
	Movement          Movement
	BalanceBefore     decimal.Decimal
	InsufficientFunds bool
}
