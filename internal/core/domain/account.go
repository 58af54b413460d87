package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountKind classifies where the money is held.
type AccountKind string

const (
	Cash    AccountKind = "cash"
	Bank    AccountKind = "bank"
	Digital AccountKind = "digital"
)

// Valid reports whether k is one of the known account kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case Cash, Bank, Digital:
		return true
	}
	return false
}

// Account represents one financial holding point (cash drawer, bank account, digital wallet).
// Balance always equals the signed sum of the account's movements.
type Account struct {
	AccountID string          `json:"accountID"`
	Name      string          `json:"name"` // Unique; matched case-insensitively by the method resolver
	Kind      AccountKind     `json:"kind"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"isActive"`
	AuditFields
}

// NameMatches compares the account name against name ignoring case and surrounding spaces.
func (a Account) NameMatches(name string) bool {
	return strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(name))
}

// BalanceRecomputation is the outcome of recomputing one account's balance from its movements.
type BalanceRecomputation struct {
	AccountID   string          `json:"accountID"`
	AccountName string          `json:"accountName"`
	TotalIn     decimal.Decimal `json:"totalIn"`
	TotalOut    decimal.Decimal `json:"totalOut"`
	Stored      decimal.Decimal `json:"stored"`   // Balance before recomputation
	Computed    decimal.Decimal `json:"computed"` // TotalIn - TotalOut
}

// Drift is the difference between the computed and the stored balance.
func (r BalanceRecomputation) Drift() decimal.Decimal {
	return r.Computed.Sub(r.Stored)
}

// Consistent reports whether the stored balance already matched the movement log.
func (r BalanceRecomputation) Consistent() bool {
	return r.Stored.Equal(r.Computed)
}
