package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Movement is the row stored in the movements table.
// The reference columns are NULL for manual movements.
type Movement struct {
	MovementID      string          `db:"movement_id"`
	AccountID       string          `db:"account_id"`
	Direction       string          `db:"direction"`
	Amount          decimal.Decimal `db:"amount"`
	PreviousBalance decimal.Decimal `db:"previous_balance"`
	NewBalance      decimal.Decimal `db:"new_balance"`
	Concept         string          `db:"concept"`
	ReferenceType   sql.NullString  `db:"reference_type"`
	ReferenceID     sql.NullString  `db:"reference_id"`
	CreatedBy       string          `db:"created_by"`
	CreatedAt       time.Time       `db:"created_at"`
}
