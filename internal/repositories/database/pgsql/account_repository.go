package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/cash_ledger_app/internal/models"
	"github.com/SscSPs/cash_ledger_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, name, kind, balance, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryWithTx {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryWithTx
var _ portsrepo.AccountRepositoryWithTx = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Name,
		&m.Kind,
		&m.Balance,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

const insertAccountQuery = `
	INSERT INTO accounts (` + accountColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	_, err := r.Pool.Exec(ctx, insertAccountQuery,
		m.AccountID, m.Name, m.Kind, m.Balance, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return translateAccountInsertError(m, err)
}

// SaveAccountInTx inserts a new account within a given transaction.
func (r *PgxAccountRepository) SaveAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	_, err := tx.Exec(ctx, insertAccountQuery,
		m.AccountID, m.Name, m.Kind, m.Balance, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return translateAccountInsertError(m, err)
}

func translateAccountInsertError(m models.Account, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: account named %q already exists", apperrors.ErrDuplicate, m.Name)
	}
	return apperrors.NewPersistenceError("failed to save account "+m.AccountID, err)
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w %s", apperrors.ErrAccountNotFound, accountID)
		}
		return nil, apperrors.NewPersistenceError("failed to find account by ID "+accountID, err)
	}

	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// ListAccounts retrieves accounts ordered by creation time with the ID as tie-breaker.
// This order defines the resolver's fallback account.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, includeInactive bool) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE is_active OR $1
		ORDER BY created_at, account_id;
	`

	rows, err := r.Pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to query accounts", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceError("failed to scan account row", err)
		}
		accounts = append(accounts, m)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("error iterating account rows", err)
	}

	return mapping.ToDomainAccountSlice(accounts), nil
}

// UpdateAccount updates an existing account's name and kind.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)

	query := `
		UPDATE accounts
		SET name = $2, kind = $3, last_updated_at = $4, last_updated_by = $5
		WHERE account_id = $1;
	`
	// Balance and is_active have dedicated write paths.

	cmdTag, err := r.Pool.Exec(ctx, query, m.AccountID, m.Name, m.Kind, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account named %q already exists", apperrors.ErrDuplicate, m.Name)
		}
		return apperrors.NewPersistenceError("failed to update account "+m.AccountID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w %s", apperrors.ErrAccountNotFound, m.AccountID)
	}

	return nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_active = TRUE;
	` // Only update if it was active

	cmdTag, err := r.Pool.Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return apperrors.NewPersistenceError("failed to deactivate account "+accountID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		// Either the account does not exist or it was already inactive.
		if _, findErr := r.FindAccountByID(ctx, accountID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrValidation, accountID)
	}

	return nil
}

// DeleteAccount removes an account that has never had a movement.
func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := r.FindAccountsByIDsForUpdate(ctx, tx, []string{accountID}); err != nil {
		return err
	}

	var hasMovements bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM movements WHERE account_id = $1);`, accountID).Scan(&hasMovements)
	if err != nil {
		return apperrors.NewPersistenceError("failed to check movements of account "+accountID, err)
	}
	if hasMovements {
		return fmt.Errorf("%w: account %s has movements and can only be deactivated", apperrors.ErrValidation, accountID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1;`, accountID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: account %s has movements and can only be deactivated", apperrors.ErrValidation, accountID)
		}
		return apperrors.NewPersistenceError("failed to delete account "+accountID, err)
	}

	return r.Commit(ctx, tx)
}

// FindAccountsByIDsForUpdate retrieves multiple accounts by IDs and locks the rows for update.
// Rows are locked in account ID order so concurrent writers touching the same accounts cannot deadlock.
// Must be called within a transaction.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	ids := uniqueSorted(accountIDs)
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to lock accounts for update", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account, len(ids))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceError("failed to scan locked account row", err)
		}
		accountsMap[m.AccountID] = mapping.ToDomainAccount(m)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("error iterating locked account rows", err)
	}

	if len(accountsMap) != len(ids) {
		missing := []string{}
		for _, id := range ids {
			if _, found := accountsMap[id]; !found {
				missing = append(missing, id)
			}
		}
		slog.WarnContext(ctx, "Some accounts requested for update lock were not found", "missing_accounts", missing)
		return nil, fmt.Errorf("%w: missing %v", apperrors.ErrAccountNotFound, missing)
	}

	return accountsMap, nil
}

// SetAccountBalanceInTx writes the balance of a locked account.
func (r *PgxAccountRepository) SetAccountBalanceInTx(ctx context.Context, tx pgx.Tx, accountID string, balance decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`

	ct, err := tx.Exec(ctx, query, accountID, balance, now, userID)
	if err != nil {
		return apperrors.NewPersistenceError("failed to update balance for account "+accountID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w %s", apperrors.ErrAccountNotFound, accountID)
	}
	return nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
