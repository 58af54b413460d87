package dto

import (
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
)

// ResolveAccountParams defines the query parameters of the resolver endpoint.
type ResolveAccountParams struct {
	Method string `form:"method"`
}

// ResolveAccountResponse names the account a payment method posts to.
type ResolveAccountResponse struct {
	Method    string `json:"method"`
	AccountID string `json:"accountID"`
}

// ReconcileResponse summarises a reconciliation run.
type ReconcileResponse struct {
	Created        int                           `json:"created"`
	Skipped        int                           `json:"skipped"`
	Errors         []string                      `json:"errors"`
	PartialFailure bool                          `json:"partialFailure"`
	Passes         []domain.PassResult           `json:"passes"`
	Recomputed     []domain.BalanceRecomputation `json:"recomputed"`
}

// ToReconcileResponse converts a domain.ReconcileResult to ReconcileResponse DTO
func ToReconcileResponse(r domain.ReconcileResult) ReconcileResponse {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return ReconcileResponse{
		Created:        r.Created,
		Skipped:        r.Skipped,
		Errors:         errs,
		PartialFailure: r.PartialFailure(),
		Passes:         r.Passes,
		Recomputed:     r.Recomputed,
	}
}

// VerifyBalancesResponse reports stored versus computed balances.
type VerifyBalancesResponse struct {
	Consistent bool                          `json:"consistent"`
	Accounts   []domain.BalanceRecomputation `json:"accounts"`
}

// ToVerifyBalancesResponse converts a drift report to VerifyBalancesResponse DTO
func ToVerifyBalancesResponse(report []domain.BalanceRecomputation) VerifyBalancesResponse {
	consistent := true
	for _, r := range report {
		if !r.Consistent() {
			consistent = false
		}
	}
	return VerifyBalancesResponse{Consistent: consistent, Accounts: report}
}
