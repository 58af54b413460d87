package domain

import "fmt"

// ReferenceType is the storage tag of the business event a movement originates from.
type ReferenceType string

const (
	RefSale              ReferenceType = "sale"
	RefExpense           ReferenceType = "expense"
	RefPaymentRecord     ReferenceType = "payment_record"
	RefPartnerWithdrawal ReferenceType = "partner_withdrawal"
	RefOpeningBalance    ReferenceType = "opening_balance"
)

// Reference identifies the originating business record of a movement.
// The set of implementations is closed: SaleRef, ExpenseRef, PaymentRecordRef,
// PartnerWithdrawalRef and OpeningBalanceRef.
type Reference interface {
	Key() ReferenceKey
	isReference()
}

// ReferenceKey is the (reference_type, reference_id) pair persisted with a movement.
// It is the deduplication key of the historical reconciler.
type ReferenceKey struct {
	Type ReferenceType
	ID   string
}

func (k ReferenceKey) String() string {
	return fmt.Sprintf("%s:%s", k.Type, k.ID)
}

// SaleRef links a movement to a paid sale.
type SaleRef struct{ SaleID string }

// ExpenseRef links a movement to an expense paid at creation time.
type ExpenseRef struct{ ExpenseID string }

// PaymentRecordRef links a movement to a receivable or payable payment.
type PaymentRecordRef struct {
	PaymentID string
	Kind      PaymentKind // Not persisted; empty when the reference was read back from storage
}

// PartnerWithdrawalRef links a movement to a withdrawal made by a partner.
type PartnerWithdrawalRef struct{ PartnerID string }

// OpeningBalanceRef links the synthetic initial movement to the account it opened.
type OpeningBalanceRef struct{ AccountID string }

func (r SaleRef) Key() ReferenceKey {
	return ReferenceKey{Type: RefSale, ID: r.SaleID}
}
func (r ExpenseRef) Key() ReferenceKey {
	return ReferenceKey{Type: RefExpense, ID: r.ExpenseID}
}
func (r PaymentRecordRef) Key() ReferenceKey {
	return ReferenceKey{Type: RefPaymentRecord, ID: r.PaymentID}
}
func (r PartnerWithdrawalRef) Key() ReferenceKey {
	return ReferenceKey{Type: RefPartnerWithdrawal, ID: r.PartnerID}
}
func (r OpeningBalanceRef) Key() ReferenceKey {
	return ReferenceKey{Type: RefOpeningBalance, ID: r.AccountID}
}

func (SaleRef) isReference()              {}
func (ExpenseRef) isReference()           {}
func (PaymentRecordRef) isReference()     {}
func (PartnerWithdrawalRef) isReference() {}
func (OpeningBalanceRef) isReference()    {}

// Unique reports whether at most one movement may carry this reference type.
// Partner withdrawals repeat for the same partner and are exempt.
func (t ReferenceType) Unique() bool {
	switch t {
	case RefSale, RefExpense, RefPaymentRecord, RefOpeningBalance:
		return true
	}
	return false
}

// ParseReference rebuilds a typed reference from its stored pair.
// A nil reference and nil error are returned when both columns are empty.
func ParseReference(refType, refID string) (Reference, error) {
	if refType == "" && refID == "" {
		return nil, nil
	}
	if refID == "" {
		return nil, fmt.Errorf("reference type %q without reference id", refType)
	}
	switch ReferenceType(refType) {
	case RefSale:
		return SaleRef{SaleID: refID}, nil
	case RefExpense:
		return ExpenseRef{ExpenseID: refID}, nil
	case RefPaymentRecord:
		return PaymentRecordRef{PaymentID: refID}, nil
	case RefPartnerWithdrawal:
		return PartnerWithdrawalRef{PartnerID: refID}, nil
	case RefOpeningBalance:
		return OpeningBalanceRef{AccountID: refID}, nil
	}
	return nil, fmt.Errorf("unknown reference type %q", refType)
}

// ReferenceKeySet is the set of reference pairs already present in the movement log.
type ReferenceKeySet map[ReferenceKey]struct{}

// Has reports whether the set holds the key of ref.
func (s ReferenceKeySet) Has(ref Reference) bool {
	if ref == nil {
		return false
	}
	_, ok := s[ref.Key()]
	return ok
}

// Add records the key of ref.
func (s ReferenceKeySet) Add(ref Reference) {
	if ref == nil {
		return
	}
	s[ref.Key()] = struct{}{}
}
