package mapping

import (
	"database/sql"
	"fmt"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	"github.com/SscSPs/cash_ledger_app/internal/models"
)

// ToModelMovement converts a domain Movement to a model Movement.
// A nil reference is stored as two NULL columns.
func ToModelMovement(d domain.Movement) models.Movement {
	m := models.Movement{
		MovementID:      d.MovementID,
		AccountID:       d.AccountID,
		Direction:       string(d.Direction),
		Amount:          d.Amount,
		PreviousBalance: d.PreviousBalance,
		NewBalance:      d.NewBalance,
		Concept:         d.Concept,
		CreatedBy:       d.CreatedBy,
		CreatedAt:       d.CreatedAt,
	}
	if d.Reference != nil {
		key := d.Reference.Key()
		m.ReferenceType = sql.NullString{String: string(key.Type), Valid: true}
		m.ReferenceID = sql.NullString{String: key.ID, Valid: true}
	}
	return m
}

// ToDomainMovement converts a model Movement to a domain Movement.
func ToDomainMovement(m models.Movement) (domain.Movement, error) {
	ref, err := domain.ParseReference(m.ReferenceType.String, m.ReferenceID.String)
	if err != nil {
		return domain.Movement{}, fmt.Errorf("movement %s: %w", m.MovementID, err)
	}
	return domain.Movement{
		MovementID:      m.MovementID,
		AccountID:       m.AccountID,
		Direction:       domain.Direction(m.Direction),
		Amount:          m.Amount,
		PreviousBalance: m.PreviousBalance,
		NewBalance:      m.NewBalance,
		Concept:         m.Concept,
		Reference:       ref,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}, nil
}

// ToDomainMovementSlice converts a slice of model Movements, failing on the first unreadable reference.
func ToDomainMovementSlice(ms []models.Movement) ([]domain.Movement, error) {
	ds := make([]domain.Movement, 0, len(ms))
	for _, m := range ms {
		d, err := ToDomainMovement(m)
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return ds, nil
}
