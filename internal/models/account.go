package models

import (
	"github.com/shopspring/decimal"
)

// Account is the row stored in the accounts table.
type Account struct {
	AccountID   string          `db:"account_id"`
	Name        string          `db:"name"`
	Kind        string          `db:"kind"`
	Balance     decimal.Decimal `db:"balance"`
	IsActive    bool            `db:"is_active"`
	AuditFields                 // Embed common audit fields
}
