package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSourceRepository reads the business tables that movements originate from. It never writes to them.
type PgxSourceRepository struct {
	BaseRepository
}

func newPgxSourceRepository(pool *pgxpool.Pool) portsrepo.SourceRepositoryFacade {
	return &PgxSourceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SourceRepositoryFacade = (*PgxSourceRepository)(nil)

const (
	saleColumns    = `id, total, payment_method, payment_account_id, is_credit, status, invoice_number, created_by`
	paymentColumns = `id, type, amount, payment_method, payment_account_id, notes, registered_by`
	expenseColumns = `e.id, e.amount, e.payment_method, e.payment_account_id, e.concept, e.registered_by,
		EXISTS (SELECT 1 FROM accounts_payable ap WHERE ap.expense_id = e.id)`
)

func scanSale(row pgx.Row) (domain.Sale, error) {
	var s domain.Sale
	err := row.Scan(&s.ID, &s.Total, &s.PaymentMethod, &s.PaymentAccountID, &s.IsCredit, &s.Status, &s.InvoiceNumber, &s.CreatedBy)
	return s, err
}

func scanPaymentRecord(row pgx.Row) (domain.PaymentRecord, error) {
	var p domain.PaymentRecord
	var recordType string
	err := row.Scan(&p.ID, &recordType, &p.Amount, &p.PaymentMethod, &p.PaymentAccountID, &p.Notes, &p.RegisteredBy)
	p.Kind = domain.PaymentKind(recordType)
	return p, err
}

func scanExpense(row pgx.Row) (domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(&e.ID, &e.Amount, &e.PaymentMethod, &e.PaymentAccountID, &e.Concept, &e.RegisteredBy, &e.HasPayable)
	return e, err
}

// collect runs query and scans every row with scan.
func collect[T any](ctx context.Context, r *BaseRepository, what string, scan func(pgx.Row) (T, error), query string, args ...any) ([]T, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to query "+what, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceError("failed to scan "+what, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("error iterating "+what, err)
	}
	return out, nil
}

func notFoundOr(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFoundError(what + " " + id + " not found")
	}
	return apperrors.NewPersistenceError("failed to load "+what+" "+id, err)
}

// FindSaleByID retrieves a sale by its ID.
func (r *PgxSourceRepository) FindSaleByID(ctx context.Context, saleID string) (*domain.Sale, error) {
	s, err := scanSale(r.Pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1;`, saleID))
	if err != nil {
		return nil, notFoundOr(err, "sale", saleID)
	}
	return &s, nil
}

// ListPaidCashSales returns the sales that brought money in at the time they were made.
func (r *PgxSourceRepository) ListPaidCashSales(ctx context.Context) ([]domain.Sale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE NOT is_credit AND LOWER(status) = $1
		ORDER BY id;
	`
	return collect(ctx, &r.BaseRepository, "sales", scanSale, query, domain.SaleStatusPaid)
}

// FindPaymentRecordByID retrieves a receivable or payable payment by its ID.
func (r *PgxSourceRepository) FindPaymentRecordByID(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	p, err := scanPaymentRecord(r.Pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payment_records WHERE id = $1;`, paymentID))
	if err != nil {
		return nil, notFoundOr(err, "payment record", paymentID)
	}
	return &p, nil
}

// ListPaymentRecords returns every payment record of one kind. The kind is stored in the type column.
func (r *PgxSourceRepository) ListPaymentRecords(ctx context.Context, kind domain.PaymentKind) ([]domain.PaymentRecord, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_records
		WHERE type = $1
		ORDER BY id;
	`
	return collect(ctx, &r.BaseRepository, string(kind)+" payment records", scanPaymentRecord, query, string(kind))
}

// FindExpenseByID retrieves an expense and whether accounts payable tracks it.
func (r *PgxSourceRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	e, err := scanExpense(r.Pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses e WHERE e.id = $1;`, expenseID))
	if err != nil {
		return nil, notFoundOr(err, "expense", expenseID)
	}
	return &e, nil
}

// ListExpensesWithoutPayable returns the expenses paid when they were registered.
func (r *PgxSourceRepository) ListExpensesWithoutPayable(ctx context.Context) ([]domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		WHERE NOT EXISTS (SELECT 1 FROM accounts_payable ap WHERE ap.expense_id = e.id)
		ORDER BY e.id;
	`
	return collect(ctx, &r.BaseRepository, "expenses", scanExpense, query)
}
