package dto

import (
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RegisterWithdrawalRequest defines a partner withdrawal.
// AccountID wins over PaymentMethod when both are set.
type RegisterWithdrawalRequest struct {
	PartnerID     string          `json:"partnerID" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	AccountID     *string         `json:"accountID"`
	Notes         string          `json:"notes"`
}

// WithdrawalResponse is returned after a withdrawal is posted.
type WithdrawalResponse struct {
	Movement          MovementResponse `json:"movement"`
	BalanceBefore     decimal.Decimal  `json:"balanceBefore"`
	InsufficientFunds bool             `json:"insufficientFunds"`
}

// ToWithdrawalResponse converts a domain.WithdrawalResult to WithdrawalResponse DTO
func ToWithdrawalResponse(r *domain.WithdrawalResult) WithdrawalResponse {
	return WithdrawalResponse{
		Movement:          ToMovementResponse(&r.Movement),
		BalanceBefore:     r.BalanceBefore,
		InsufficientFunds: r.InsufficientFunds,
	}
}
