package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SaleStatusPaid is the status of a sale whose payment has been collected.
const SaleStatusPaid = "paid"

// PaymentKind distinguishes money collected from customers and money paid to suppliers.
type PaymentKind string

const (
	Receivable PaymentKind = "receivable"
	Payable    PaymentKind = "payable"
)

// Sale is the subset of a sales record the ledger needs.
type Sale struct {
	ID               string
	Total            decimal.Decimal
	PaymentMethod    string
	PaymentAccountID *string
	IsCredit         bool
	Status           string
	InvoiceNumber    string
	CreatedBy        string
}

// Postable reports whether the sale brings money into an account now.
func (s Sale) Postable() bool {
	return !s.IsCredit && strings.EqualFold(s.Status, SaleStatusPaid)
}

// PaymentRecord is a payment against an account receivable or an account payable.
type PaymentRecord struct {
	ID               string
	Kind             PaymentKind
	Amount           decimal.Decimal
	PaymentMethod    string
	PaymentAccountID *string
	Notes            string
	RegisteredBy     string
}

// Expense is the subset of an expense record the ledger needs.
type Expense struct {
	ID               string
	Amount           decimal.Decimal
	PaymentMethod    string
	PaymentAccountID *string
	Concept          string
	RegisteredBy     string
	HasPayable       bool // Tracked through accounts_payable; money moves when the payable is paid
}

// SaleDraft derives the movement of a paid sale. AccountID is left for the caller to resolve.
func SaleDraft(s Sale) MovementDraft {
	return MovementDraft{
		Direction: In,
		Amount:    s.Total,
		Concept:   "Venta " + s.InvoiceNumber,
		Reference: SaleRef{SaleID: s.ID},
		CreatedBy: s.CreatedBy,
	}
}

// ExpenseDraft derives the movement of an expense paid at creation time.
func ExpenseDraft(e Expense) MovementDraft {
	return MovementDraft{
		Direction: Out,
		Amount:    e.Amount,
		Concept:   "Gasto: " + e.Concept,
		Reference: ExpenseRef{ExpenseID: e.ID},
		CreatedBy: e.RegisteredBy,
	}
}

// PaymentRecordDraft derives the movement of a receivable (in) or payable (out) payment.
func PaymentRecordDraft(p PaymentRecord) MovementDraft {
	draft := MovementDraft{
		Direction: In,
		Amount:    p.Amount,
		Concept:   "Abono cuenta por cobrar",
		Reference: PaymentRecordRef{PaymentID: p.ID, Kind: p.Kind},
		CreatedBy: p.RegisteredBy,
	}
	if p.Kind == Payable {
		draft.Direction = Out
		draft.Concept = "Pago cuenta por pagar"
	}
	if notes := strings.TrimSpace(p.Notes); notes != "" {
		draft.Concept += ": " + notes
	}
	return draft
}

// OpeningBalanceDraft derives the synthetic initial movement of a new account.
// ok is false when the opening balance is zero and no movement is needed.
func OpeningBalanceDraft(accountID string, opening decimal.Decimal, createdBy string) (draft MovementDraft, ok bool) {
	if opening.IsZero() {
		return MovementDraft{}, false
	}
	draft = MovementDraft{
		AccountID: accountID,
		Direction: In,
		Amount:    opening.Abs(),
		Concept:   "Saldo inicial",
		Reference: OpeningBalanceRef{AccountID: accountID},
		CreatedBy: createdBy,
	}
	if opening.IsNegative() {
		draft.Direction = Out
	}
	return draft, true
}
