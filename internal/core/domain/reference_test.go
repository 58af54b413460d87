package domain_test

import (
	"testing"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		refType string
		refID   string
		want    domain.Reference
	}{
		{"sale", "s-1", domain.SaleRef{SaleID: "s-1"}},
		{"expense", "e-1", domain.ExpenseRef{ExpenseID: "e-1"}},
		{"payment_record", "p-1", domain.PaymentRecordRef{PaymentID: "p-1"}},
		{"partner_withdrawal", "partner-1", domain.PartnerWithdrawalRef{PartnerID: "partner-1"}},
		{"opening_balance", "acc-1", domain.OpeningBalanceRef{AccountID: "acc-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.refType, func(t *testing.T) {
			got, err := domain.ParseReference(tt.refType, tt.refID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, domain.ReferenceKey{Type: domain.ReferenceType(tt.refType), ID: tt.refID}, got.Key())
		})
	}
}

func TestParseReference_Empty(t *testing.T) {
	ref, err := domain.ParseReference("", "")
	assert.NoError(t, err)
	assert.Nil(t, ref)
}

func TestParseReference_Invalid(t *testing.T) {
	_, err := domain.ParseReference("invoice", "i-1")
	assert.ErrorContains(t, err, "unknown reference type")

	_, err = domain.ParseReference("sale", "")
	assert.ErrorContains(t, err, "without reference id")
}

func TestPaymentKindDoesNotChangeKey(t *testing.T) {
	receivable := domain.PaymentRecordRef{PaymentID: "p-9", Kind: domain.Receivable}
	stored := domain.PaymentRecordRef{PaymentID: "p-9"}
	assert.Equal(t, receivable.Key(), stored.Key())
}

func TestReferenceType_Unique(t *testing.T) {
	assert.True(t, domain.RefSale.Unique())
	assert.True(t, domain.RefPaymentRecord.Unique())
	assert.True(t, domain.RefOpeningBalance.Unique())
	assert.False(t, domain.RefPartnerWithdrawal.Unique())
}

func TestReferenceKeySet(t *testing.T) {
	set := domain.ReferenceKeySet{}
	set.Add(domain.SaleRef{SaleID: "s-1"})
	set.Add(nil)

	assert.True(t, set.Has(domain.SaleRef{SaleID: "s-1"}))
	assert.False(t, set.Has(domain.SaleRef{SaleID: "s-2"}))
	assert.False(t, set.Has(domain.ExpenseRef{ExpenseID: "s-1"}), "same id under another type is a different key")
	assert.False(t, set.Has(nil))
	assert.Len(t, set, 1)
}
