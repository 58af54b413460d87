package mapping

import (
	"database/sql"
	"testing"
	"time"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	"github.com/SscSPs/cash_ledger_app/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToModelMovement_Reference(t *testing.T) {
	withRef := ToModelMovement(domain.Movement{
		MovementID: "m-1",
		Direction:  domain.In,
		Amount:     decimal.NewFromInt(10),
		Reference:  domain.SaleRef{SaleID: "s-1"},
	})
	assert.Equal(t, sql.NullString{String: "sale", Valid: true}, withRef.ReferenceType)
	assert.Equal(t, sql.NullString{String: "s-1", Valid: true}, withRef.ReferenceID)

	manual := ToModelMovement(domain.Movement{MovementID: "m-2", Direction: domain.Out})
	assert.False(t, manual.ReferenceType.Valid)
	assert.False(t, manual.ReferenceID.Valid)
}

func TestToDomainMovement(t *testing.T) {
	now := time.Now().UTC()
	m, err := ToDomainMovement(ToModelMovement(domain.Movement{
		MovementID: "m-1",
		AccountID:  "acc-1",
		Direction:  domain.Out,
		Amount:     decimal.NewFromInt(5),
		Concept:    "Gasto: Insumos",
		Reference:  domain.ExpenseRef{ExpenseID: "e-1"},
		CreatedAt:  now,
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseRef{ExpenseID: "e-1"}, m.Reference)
	assert.Equal(t, domain.Out, m.Direction)
	assert.Equal(t, now, m.CreatedAt)
}

func TestToDomainMovement_UnknownReference(t *testing.T) {
	rows := []models.Movement{{
		MovementID:    "m-9",
		Direction:     "in",
		ReferenceType: sql.NullString{String: "invoice", Valid: true},
		ReferenceID:   sql.NullString{String: "i-1", Valid: true},
	}}
	_, err := ToDomainMovementSlice(rows)
	assert.ErrorContains(t, err, "unknown reference type")
}
