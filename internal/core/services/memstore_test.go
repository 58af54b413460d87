package services_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory ledger that behaves like the Postgres repositories: one mutex plays the role of
// the row locks, and the partial unique index on movement references is enforced on insert.
type memStore struct {
	mu        sync.Mutex
	clock     time.Time
	accounts  map[string]*domain.Account
	movements []domain.Movement

	sales    []domain.Sale
	payments []domain.PaymentRecord
	expenses []domain.Expense
	payables map[string]bool // expense IDs tracked by accounts payable

	lockHeld       bool
	insertErrors   map[string]error // reference ID -> error returned by InsertSynthesizedMovement
	insertedDrafts []domain.MovementDraft
}

var (
	_ portsrepo.AccountRepositoryFacade  = (*memStore)(nil)
	_ portsrepo.MovementRepositoryFacade = (*memStore)(nil)
	_ portsrepo.SourceRepositoryFacade   = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		clock:        time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		accounts:     map[string]*domain.Account{},
		payables:     map[string]bool{},
		insertErrors: map[string]error{},
	}
}

func (s *memStore) repos() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{AccountRepo: s, MovementRepo: s, SourceRepo: s}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// --- seeding helpers ---

func (s *memStore) addAccount(name string, kind domain.AccountKind, active bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	id := uuid.NewString()
	s.accounts[id] = &domain.Account{
		AccountID:   id,
		Name:        name,
		Kind:        kind,
		IsActive:    active,
		AuditFields: domain.AuditFields{CreatedAt: now, CreatedBy: "seed", LastUpdatedAt: now, LastUpdatedBy: "seed"},
	}
	return id
}

func (s *memStore) addSale(sale domain.Sale) {
	s.sales = append(s.sales, sale)
}

func (s *memStore) addPayment(p domain.PaymentRecord) {
	s.payments = append(s.payments, p)
}

func (s *memStore) addExpense(e domain.Expense) {
	s.expenses = append(s.expenses, e)
}

func (s *memStore) markPayable(expenseID string) {
	s.payables[expenseID] = true
}

func (s *memStore) setStoredBalance(id string, b int64) {
	s.accounts[id].Balance = decimal.NewFromInt(b)
}

func (s *memStore) balance(id string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].Balance
}

func (s *memStore) movementsFor(ref domain.Reference) []domain.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Movement{}
	for _, m := range s.movements {
		if m.Reference != nil && m.Reference.Key() == ref.Key() {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

// drift returns, per account ID, the difference between the stored balance and the movement sum.
func (s *memStore) drift() map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]decimal.Decimal{}
	for id, acc := range s.accounts {
		in, outSum := s.sumLocked(id)
		if d := acc.Balance.Sub(in.Sub(outSum)); !d.IsZero() {
			out[id] = d
		}
	}
	return out
}

func (s *memStore) sumLocked(accountID string) (decimal.Decimal, decimal.Decimal) {
	in, out := decimal.Zero, decimal.Zero
	for _, m := range s.movements {
		if m.AccountID != accountID {
			continue
		}
		if m.Direction == domain.In {
			in = in.Add(m.Amount)
		} else {
			out = out.Add(m.Amount)
		}
	}
	return in, out
}

func (s *memStore) accountLocked(id string) (*domain.Account, error) {
	acc, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w %s", apperrors.ErrAccountNotFound, id)
	}
	return acc, nil
}

func (s *memStore) insertLocked(m domain.Movement) error {
	if m.Reference != nil && m.Reference.Key().Type.Unique() {
		for _, existing := range s.movements {
			if existing.Reference != nil && existing.Reference.Key() == m.Reference.Key() {
				return fmt.Errorf("%w: movement for %s", apperrors.ErrDuplicate, m.Reference.Key())
			}
		}
	}
	s.movements = append(s.movements, m)
	return nil
}

func (s *memStore) newMovementLocked(draft domain.MovementDraft, previous decimal.Decimal) domain.Movement {
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
		CreatedAt:       s.tick(),
	}
}

// --- AccountRepositoryFacade ---

func (s *memStore) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.accountLocked(accountID)
	if err != nil {
		return nil, err
	}
	cp := *acc
	return &cp, nil
}

func (s *memStore) ListAccounts(_ context.Context, includeInactive bool) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Account{}
	for _, acc := range s.accounts {
		if acc.IsActive || includeInactive {
			out = append(out, *acc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out, nil
}

func (s *memStore) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAccountLocked(account)
}

func (s *memStore) saveAccountLocked(account domain.Account) error {
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.Name, account.Name) {
			return fmt.Errorf("%w: account named %q already exists", apperrors.ErrDuplicate, account.Name)
		}
	}
	cp := account
	s.accounts[account.AccountID] = &cp
	return nil
}

func (s *memStore) UpdateAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.accountLocked(account.AccountID)
	if err != nil {
		return err
	}
	acc.Name, acc.Kind = account.Name, account.Kind
	acc.LastUpdatedAt, acc.LastUpdatedBy = account.LastUpdatedAt, account.LastUpdatedBy
	return nil
}

func (s *memStore) DeactivateAccount(_ context.Context, accountID string, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.accountLocked(accountID)
	if err != nil {
		return err
	}
	if !acc.IsActive {
		return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrValidation, accountID)
	}
	acc.IsActive = false
	acc.LastUpdatedAt, acc.LastUpdatedBy = now, userID
	return nil
}

func (s *memStore) DeleteAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.accountLocked(accountID); err != nil {
		return err
	}
	for _, m := range s.movements {
		if m.AccountID == accountID {
			return fmt.Errorf("%w: account %s has movements and can only be deactivated", apperrors.ErrValidation, accountID)
		}
	}
	delete(s.accounts, accountID)
	return nil
}

func (s *memStore) SaveAccountInTx(ctx context.Context, _ pgx.Tx, account domain.Account) error {
	return s.SaveAccount(ctx, account)
}

func (s *memStore) FindAccountsByIDsForUpdate(_ context.Context, _ pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]domain.Account{}
	for _, id := range accountIDs {
		acc, err := s.accountLocked(id)
		if err != nil {
			return nil, err
		}
		out[id] = *acc
	}
	return out, nil
}

func (s *memStore) SetAccountBalanceInTx(_ context.Context, _ pgx.Tx, accountID string, balance decimal.Decimal, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.accountLocked(accountID)
	if err != nil {
		return err
	}
	acc.Balance, acc.LastUpdatedBy, acc.LastUpdatedAt = balance, userID, now
	return nil
}

// --- MovementRepositoryFacade ---

func (s *memStore) FindMovementByID(_ context.Context, movementID string) (*domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movements {
		if m.MovementID == movementID {
			cp := m
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("movement " + movementID + " not found")
}

func (s *memStore) ListMovementsByAccount(_ context.Context, accountID string, limit int, _ *string) ([]domain.Movement, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Movement{}
	for i := len(s.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if s.movements[i].AccountID == accountID {
			out = append(out, s.movements[i])
		}
	}
	return out, nil, nil
}

func (s *memStore) ListReferenceKeys(_ context.Context) (domain.ReferenceKeySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := domain.ReferenceKeySet{}
	for _, m := range s.movements {
		set.Add(m.Reference)
	}
	return set, nil
}

func (s *memStore) SumMovementsByAccount(_ context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, out := s.sumLocked(accountID)
	return in, out, nil
}

func (s *memStore) PostMovement(_ context.Context, draft domain.MovementDraft) (*domain.Movement, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.accountLocked(draft.AccountID)
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrInvalidMovement, acc.AccountID)
	}
	m := s.newMovementLocked(draft, acc.Balance)
	if err := s.insertLocked(m); err != nil {
		return nil, err
	}
	acc.Balance = m.NewBalance
	return &m, nil
}

func (s *memStore) removeLocked(movementID string) (domain.Movement, error) {
	for i, m := range s.movements {
		if m.MovementID == movementID {
			s.movements = append(s.movements[:i], s.movements[i+1:]...)
			return m, nil
		}
	}
	return domain.Movement{}, apperrors.NewNotFoundError("movement " + movementID + " not found")
}

func (s *memStore) ReverseMovement(_ context.Context, movementID string, _ string) (*domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, err := s.removeLocked(movementID)
	if err != nil {
		return nil, err
	}
	acc := s.accounts[removed.AccountID]
	acc.Balance = acc.Balance.Sub(removed.Delta())
	return &removed, nil
}

func (s *memStore) ReplaceMovement(_ context.Context, movementID string, replacement domain.MovementDraft) (*domain.Movement, error) {
	if err := replacement.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	target, err := s.accountLocked(replacement.AccountID)
	if err != nil {
		return nil, err
	}
	if !target.IsActive {
		return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrInvalidMovement, target.AccountID)
	}
	removed, err := s.removeLocked(movementID)
	if err != nil {
		return nil, err
	}
	original := s.accounts[removed.AccountID]
	original.Balance = original.Balance.Sub(removed.Delta())

	m := s.newMovementLocked(replacement, target.Balance)
	if err := s.insertLocked(m); err != nil {
		return nil, err
	}
	target.Balance = m.NewBalance
	return &m, nil
}

func (s *memStore) OpenAccount(_ context.Context, account domain.Account, opening *domain.MovementDraft) (*domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account.Balance = decimal.Zero
	if err := s.saveAccountLocked(account); err != nil {
		return nil, err
	}
	if opening == nil {
		return nil, nil
	}
	m := s.newMovementLocked(*opening, decimal.Zero)
	if err := s.insertLocked(m); err != nil {
		delete(s.accounts, account.AccountID)
		return nil, err
	}
	s.accounts[account.AccountID].Balance = m.NewBalance
	return &m, nil
}

func (s *memStore) InsertSynthesizedMovement(_ context.Context, draft domain.MovementDraft) (*domain.Movement, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if draft.Reference != nil {
		if err, ok := s.insertErrors[draft.Reference.Key().ID]; ok {
			return nil, err
		}
	}
	if _, err := s.accountLocked(draft.AccountID); err != nil {
		return nil, err
	}
	m := s.newMovementLocked(draft, decimal.Zero)
	m.NewBalance = decimal.Zero
	if err := s.insertLocked(m); err != nil {
		return nil, err
	}
	s.insertedDrafts = append(s.insertedDrafts, draft)
	return &m, nil
}

func (s *memStore) RecomputeAccountBalance(_ context.Context, accountID string, userID string) (domain.BalanceRecomputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.accountLocked(accountID)
	if err != nil {
		return domain.BalanceRecomputation{}, err
	}
	in, out := s.sumLocked(accountID)
	rec := domain.BalanceRecomputation{
		AccountID:   accountID,
		AccountName: acc.Name,
		TotalIn:     in,
		TotalOut:    out,
		Stored:      acc.Balance,
		Computed:    in.Sub(out),
	}
	acc.Balance, acc.LastUpdatedBy = rec.Computed, userID
	return rec, nil
}

func (s *memStore) WithMaintenanceLock(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.lockHeld {
		s.mu.Unlock()
		return fmt.Errorf("%w: a reconciliation run is already in progress", apperrors.ErrConflict)
	}
	s.lockHeld = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.lockHeld = false
		s.mu.Unlock()
	}()
	return fn(ctx)
}

// --- SourceRepositoryFacade ---

func (s *memStore) FindSaleByID(_ context.Context, saleID string) (*domain.Sale, error) {
	for _, sale := range s.sales {
		if sale.ID == saleID {
			cp := sale
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("sale " + saleID + " not found")
}

func (s *memStore) ListPaidCashSales(_ context.Context) ([]domain.Sale, error) {
	out := []domain.Sale{}
	for _, sale := range s.sales {
		if sale.Postable() {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *memStore) FindPaymentRecordByID(_ context.Context, paymentID string) (*domain.PaymentRecord, error) {
	for _, p := range s.payments {
		if p.ID == paymentID {
			cp := p
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("payment record " + paymentID + " not found")
}

func (s *memStore) ListPaymentRecords(_ context.Context, kind domain.PaymentKind) ([]domain.PaymentRecord, error) {
	out := []domain.PaymentRecord{}
	for _, p := range s.payments {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) FindExpenseByID(_ context.Context, expenseID string) (*domain.Expense, error) {
	for _, e := range s.expenses {
		if e.ID == expenseID {
			cp := e
			cp.HasPayable = s.payables[e.ID]
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("expense " + expenseID + " not found")
}

func (s *memStore) ListExpensesWithoutPayable(_ context.Context) ([]domain.Expense, error) {
	out := []domain.Expense{}
	for _, e := range s.expenses {
		if !s.payables[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}
