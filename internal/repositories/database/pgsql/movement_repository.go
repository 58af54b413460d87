package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/cash_ledger_app/internal/models"
	"github.com/SscSPs/cash_ledger_app/internal/utils/mapping"
	"github.com/SscSPs/cash_ledger_app/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const movementColumns = `movement_id, account_id, direction, amount, previous_balance, new_balance, concept, reference_type, reference_id, created_by, created_at`

type PgxMovementRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxMovementRepository creates a new repository for the movement log.
func newPgxMovementRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.MovementRepositoryWithTx {
	return &PgxMovementRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxMovementRepository implements portsrepo.MovementRepositoryWithTx
var _ portsrepo.MovementRepositoryWithTx = (*PgxMovementRepository)(nil)

func scanMovement(row pgx.Row) (models.Movement, error) {
	var m models.Movement
	err := row.Scan(
		&m.MovementID,
		&m.AccountID,
		&m.Direction,
		&m.Amount,
		&m.PreviousBalance,
		&m.NewBalance,
		&m.Concept,
		&m.ReferenceType,
		&m.ReferenceID,
		&m.CreatedBy,
		&m.CreatedAt,
	)
	return m, err
}

// insertMovement writes one movement row. A duplicate business reference is reported as apperrors.ErrDuplicate.
func insertMovement(ctx context.Context, tx pgx.Tx, movement domain.Movement) error {
	m := mapping.ToModelMovement(movement)
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := tx.Exec(ctx, query,
		m.MovementID,
		m.AccountID,
		m.Direction,
		m.Amount,
		m.PreviousBalance,
		m.NewBalance,
		m.Concept,
		m.ReferenceType,
		m.ReferenceID,
		m.CreatedBy,
		m.CreatedAt,
	)
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) && movement.Reference != nil {
		return fmt.Errorf("%w: movement for %s", apperrors.ErrDuplicate, movement.Reference.Key())
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w %s", apperrors.ErrAccountNotFound, m.AccountID)
	}
	return apperrors.NewPersistenceError("failed to insert movement "+m.MovementID, err)
}

func newMovement(draft domain.MovementDraft, previous decimal.Decimal, now time.Time) domain.Movement {
	return domain.Movement{
		MovementID:      uuid.NewString(),
		AccountID:       draft.AccountID,
		Direction:       draft.Direction,
		Amount:          draft.Amount,
		PreviousBalance: previous,
		NewBalance:      draft.Direction.Apply(previous, draft.Amount),
		Concept:         draft.Concept,
		Reference:       draft.Reference,
		CreatedBy:       draft.CreatedBy,
		CreatedAt:       now,
	}
}

func requireActive(account domain.Account) error {
	if !account.IsActive {
		return fmt.Errorf("%w: account %s is inactive", apperrors.ErrInvalidMovement, account.AccountID)
	}
	return nil
}

// PostMovement locks the account, appends the movement with its balance snapshots and stores the new balance,
// all in one transaction.
func (r *PgxMovementRepository) PostMovement(ctx context.Context, draft domain.MovementDraft) (*domain.Movement, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) // Will be ignored if transaction is committed successfully

	locked, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{draft.AccountID})
	if err != nil {
		return nil, err
	}
	account := locked[draft.AccountID]
	if err := requireActive(account); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	movement := newMovement(draft, account.Balance, now)

	if err := insertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}
	if err := r.accountRepo.SetAccountBalanceInTx(ctx, tx, account.AccountID, movement.NewBalance, draft.CreatedBy, now); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &movement, nil
}

// findMovementForUpdate loads and row-locks a movement inside tx.
func findMovementForUpdate(ctx context.Context, tx pgx.Tx, movementID string) (domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE movement_id = $1 FOR UPDATE;`
	m, err := scanMovement(tx.QueryRow(ctx, query, movementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movement{}, apperrors.NewNotFoundError("movement " + movementID + " not found")
		}
		return domain.Movement{}, apperrors.NewPersistenceError("failed to load movement "+movementID, err)
	}
	return mapping.ToDomainMovement(m)
}

// ReverseMovement deletes a movement and reverts its effect on the account balance.
// The removed movement is returned.
func (r *PgxMovementRepository) ReverseMovement(ctx context.Context, movementID string, userID string) (*domain.Movement, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	original, err := findMovementForUpdate(ctx, tx, movementID)
	if err != nil {
		return nil, err
	}

	locked, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{original.AccountID})
	if err != nil {
		return nil, err
	}
	account := locked[original.AccountID]

	if _, err := tx.Exec(ctx, `DELETE FROM movements WHERE movement_id = $1;`, movementID); err != nil {
		return nil, apperrors.NewPersistenceError("failed to delete movement "+movementID, err)
	}

	now := time.Now().UTC()
	reverted := account.Balance.Sub(original.Delta())
	if err := r.accountRepo.SetAccountBalanceInTx(ctx, tx, account.AccountID, reverted, userID, now); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &original, nil
}

// ReplaceMovement deletes a movement, reverts its effect and posts the replacement in one transaction.
// The replacement may target a different account; both accounts are locked before any write.
func (r *PgxMovementRepository) ReplaceMovement(ctx context.Context, movementID string, replacement domain.MovementDraft) (*domain.Movement, error) {
	if err := replacement.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	original, err := findMovementForUpdate(ctx, tx, movementID)
	if err != nil {
		return nil, err
	}

	locked, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{original.AccountID, replacement.AccountID})
	if err != nil {
		return nil, err
	}
	if err := requireActive(locked[replacement.AccountID]); err != nil {
		return nil, err
	}

	balances := map[string]decimal.Decimal{}
	for id, acc := range locked {
		balances[id] = acc.Balance
	}
	balances[original.AccountID] = balances[original.AccountID].Sub(original.Delta())

	if _, err := tx.Exec(ctx, `DELETE FROM movements WHERE movement_id = $1;`, movementID); err != nil {
		return nil, apperrors.NewPersistenceError("failed to delete movement "+movementID, err)
	}

	now := time.Now().UTC()
	movement := newMovement(replacement, balances[replacement.AccountID], now)
	if err := insertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}
	balances[replacement.AccountID] = movement.NewBalance

	for id, balance := range balances {
		if err := r.accountRepo.SetAccountBalanceInTx(ctx, tx, id, balance, replacement.CreatedBy, now); err != nil {
			return nil, err
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &movement, nil
}

// OpenAccount inserts a new account and, when given, its opening-balance movement.
func (r *PgxMovementRepository) OpenAccount(ctx context.Context, account domain.Account, opening *domain.MovementDraft) (*domain.Movement, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	account.Balance = decimal.Zero
	if err := r.accountRepo.SaveAccountInTx(ctx, tx, account); err != nil {
		return nil, err
	}

	var movement *domain.Movement
	if opening != nil {
		if err := opening.Validate(); err != nil {
			return nil, err
		}
		m := newMovement(*opening, decimal.Zero, account.CreatedAt)
		if err := insertMovement(ctx, tx, m); err != nil {
			return nil, err
		}
		if err := r.accountRepo.SetAccountBalanceInTx(ctx, tx, account.AccountID, m.NewBalance, account.CreatedBy, account.CreatedAt); err != nil {
			return nil, err
		}
		movement = &m
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return movement, nil
}

// FindMovementByID retrieves a movement by its ID.
func (r *PgxMovementRepository) FindMovementByID(ctx context.Context, movementID string) (*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE movement_id = $1;`

	m, err := scanMovement(r.Pool.QueryRow(ctx, query, movementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("movement " + movementID + " not found")
		}
		return nil, apperrors.NewPersistenceError("failed to find movement "+movementID, err)
	}

	movement, err := mapping.ToDomainMovement(m)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to read movement "+movementID, err)
	}
	return &movement, nil
}

// ListMovementsByAccount retrieves a page of movements for an account, newest first.
// It returns the movements, a token for the next page (if any), and an error.
func (r *PgxMovementRepository) ListMovementsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Movement, *string, error) {
	// Default limit handling
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + movementColumns + ` FROM movements WHERE account_id = $1`
	// Ordering must be stable; the movement ID breaks ties between equal timestamps.
	orderByClause := `ORDER BY created_at DESC, movement_id DESC`

	args := []any{accountID}
	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %w", apperrors.ErrValidation, decodeErr)
		}
		query += ` AND (created_at, movement_id) < ($2, $3)`
		args = append(args, lastCreatedAt, lastID)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewPersistenceError("failed to query movements for account "+accountID, err)
	}
	defer rows.Close()

	page := make([]models.Movement, 0, fetchLimit)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, nil, apperrors.NewPersistenceError("failed to scan movement row for account "+accountID, err)
		}
		page = append(page, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewPersistenceError("error iterating movement rows for account "+accountID, err)
	}

	var nextTokenVal *string
	if len(page) > limit {
		// The token points to the last item included in this page.
		last := page[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.MovementID)
		nextTokenVal = &token
		page = page[:limit]
	}

	movements, err := mapping.ToDomainMovementSlice(page)
	if err != nil {
		return nil, nil, apperrors.NewPersistenceError("failed to read movements for account "+accountID, err)
	}
	return movements, nextTokenVal, nil
}

// ListReferenceKeys returns every reference pair present in the movement log.
func (r *PgxMovementRepository) ListReferenceKeys(ctx context.Context) (domain.ReferenceKeySet, error) {
	query := `
		SELECT DISTINCT reference_type, reference_id
		FROM movements
		WHERE reference_type IS NOT NULL;
	`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to query movement references", err)
	}
	defer rows.Close()

	keys := domain.ReferenceKeySet{}
	for rows.Next() {
		var refType, refID string
		if err := rows.Scan(&refType, &refID); err != nil {
			return nil, apperrors.NewPersistenceError("failed to scan movement reference", err)
		}
		keys[domain.ReferenceKey{Type: domain.ReferenceType(refType), ID: refID}] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("error iterating movement references", err)
	}
	return keys, nil
}

const sumMovementsQuery = `
	SELECT COALESCE(SUM(amount) FILTER (WHERE direction = 'in'), 0),
	       COALESCE(SUM(amount) FILTER (WHERE direction = 'out'), 0)
	FROM movements
	WHERE account_id = $1;
`

// SumMovementsByAccount returns the totals of in and out movements of an account.
func (r *PgxMovementRepository) SumMovementsByAccount(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	var totalIn, totalOut decimal.Decimal
	if err := r.Pool.QueryRow(ctx, sumMovementsQuery, accountID).Scan(&totalIn, &totalOut); err != nil {
		return decimal.Zero, decimal.Zero, apperrors.NewPersistenceError("failed to sum movements for account "+accountID, err)
	}
	return totalIn, totalOut, nil
}

// InsertSynthesizedMovement inserts a backfilled movement. Its balance snapshots are zero placeholders
// and the account balance is left to the recompute pass.
func (r *PgxMovementRepository) InsertSynthesizedMovement(ctx context.Context, draft domain.MovementDraft) (*domain.Movement, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	movement := newMovement(draft, decimal.Zero, time.Now().UTC())
	movement.NewBalance = decimal.Zero
	if err := insertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &movement, nil
}

// RecomputeAccountBalance locks the account, sums its movements and stores the result as the balance.
func (r *PgxMovementRepository) RecomputeAccountBalance(ctx context.Context, accountID string, userID string) (domain.BalanceRecomputation, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return domain.BalanceRecomputation{}, err
	}
	defer r.Rollback(ctx, tx)

	locked, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, []string{accountID})
	if err != nil {
		return domain.BalanceRecomputation{}, err
	}
	account := locked[accountID]

	result := domain.BalanceRecomputation{
		AccountID:   account.AccountID,
		AccountName: account.Name,
		Stored:      account.Balance,
	}
	if err := tx.QueryRow(ctx, sumMovementsQuery, accountID).Scan(&result.TotalIn, &result.TotalOut); err != nil {
		return domain.BalanceRecomputation{}, apperrors.NewPersistenceError("failed to sum movements for account "+accountID, err)
	}
	result.Computed = result.TotalIn.Sub(result.TotalOut)

	if err := r.accountRepo.SetAccountBalanceInTx(ctx, tx, accountID, result.Computed, userID, time.Now().UTC()); err != nil {
		return domain.BalanceRecomputation{}, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return domain.BalanceRecomputation{}, err
	}
	return result, nil
}
