package repositories

import (
	"context"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
)

// SaleReader reads the sales collaborator table.
type SaleReader interface {
	// FindSaleByID retrieves a sale by its ID.
	FindSaleByID(ctx context.Context, saleID string) (*domain.Sale, error)

	// ListPaidCashSales returns every sale that is paid and not on credit.
	ListPaidCashSales(ctx context.Context) ([]domain.Sale, error)
}

// PaymentRecordReader reads receivable and payable payments.
type PaymentRecordReader interface {
	// FindPaymentRecordByID retrieves a payment record by its ID.
	FindPaymentRecordByID(ctx context.Context, paymentID string) (*domain.PaymentRecord, error)

	// ListPaymentRecords returns every payment record of the given kind.
	ListPaymentRecords(ctx context.Context, kind domain.PaymentKind) ([]domain.PaymentRecord, error)
}

// ExpenseReader reads the expenses collaborator table.
type ExpenseReader interface {
	// FindExpenseByID retrieves an expense, with HasPayable set when an accounts-payable record tracks it.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpensesWithoutPayable returns every expense not associated with an accounts-payable record.
	ListExpensesWithoutPayable(ctx context.Context) ([]domain.Expense, error)
}

// SourceRepositoryFacade combines the read-only collaborator interfaces.
type SourceRepositoryFacade interface {
	SaleReader
	PaymentRecordReader
	ExpenseReader
}
