package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"golang.org/x/sync/errgroup"
)

// Backfill pass names, in reporting order.
const (
	PassSales              = "sales"
	PassReceivablePayments = "receivable_payments"
	PassExpenses           = "expenses"
	PassPayablePayments    = "payable_payments"
)

// backfillCandidate is one business record that should have a movement.
type backfillCandidate struct {
	label    string // e.g. "sale s-1", used in error messages
	draft    domain.MovementDraft
	explicit *string
	method   string
}

type backfillPass struct {
	name string
	load func(ctx context.Context) ([]backfillCandidate, error)
}

type reconcilerService struct {
	BaseService
	accountRepo    portsrepo.AccountReader
	movementRepo   portsrepo.MovementRepositoryFacade
	sourceRepo     portsrepo.SourceRepositoryFacade
	methodAccounts map[string]string
}

// NewReconcilerService creates the historical reconciler.
func NewReconcilerService(
	accountRepo portsrepo.AccountReader,
	movementRepo portsrepo.MovementRepositoryFacade,
	sourceRepo portsrepo.SourceRepositoryFacade,
	methodAccounts map[string]string,
) portssvc.ReconcilerSvc {
	if methodAccounts == nil {
		methodAccounts = MergeMethodAccounts(nil)
	}
	return &reconcilerService{
		accountRepo:    accountRepo,
		movementRepo:   movementRepo,
		sourceRepo:     sourceRepo,
		methodAccounts: methodAccounts,
	}
}

var _ portssvc.ReconcilerSvc = (*reconcilerService)(nil)

// ReconcileHistory holds the maintenance lock for the whole run, so a concurrent run fails fast with
// apperrors.ErrConflict.
func (s *reconcilerService) ReconcileHistory(ctx context.Context, defaultCreator string) (domain.ReconcileResult, error) {
	var result domain.ReconcileResult
	err := s.movementRepo.WithMaintenanceLock(ctx, func(ctx context.Context) error {
		var runErr error
		result, runErr = s.reconcile(ctx, defaultCreator)
		return runErr
	})
	if err != nil {
		s.LogUnexpected(ctx, err, "Reconciliation aborted",
			slog.Int("created", result.Created),
			slog.Int("skipped", result.Skipped))
		return result, err
	}
	return result, nil
}

func (s *reconcilerService) reconcile(ctx context.Context, defaultCreator string) (domain.ReconcileResult, error) {
	result := domain.ReconcileResult{Errors: []string{}}

	accounts, err := s.accountRepo.ListAccounts(ctx, false)
	if err != nil {
		return result, fmt.Errorf("failed to load accounts: %w", err)
	}
	if len(accounts) == 0 {
		return result, fmt.Errorf("%w: no active accounts", apperrors.ErrAccountNotFound)
	}

	existing, err := s.movementRepo.ListReferenceKeys(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load existing movement references: %w", err)
	}

	resolve := s.snapshotResolver(accounts)
	passes := s.passes()
	outcomes := make([]domain.PassResult, len(passes))
	passErrors := make([][]string, len(passes))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range passes {
		g.Go(func() error {
			out, errs, err := s.runPass(gctx, p, existing, resolve, defaultCreator)
			outcomes[i] = out
			passErrors[i] = errs
			return err
		})
	}
	waitErr := g.Wait()

	for i := range passes {
		result.Passes = append(result.Passes, outcomes[i])
		result.Created += outcomes[i].Created
		result.Skipped += outcomes[i].Skipped
		result.Errors = append(result.Errors, passErrors[i]...)
	}
	if waitErr != nil {
		return result, waitErr
	}

	// Balances are recomputed only once every pass has finished inserting, whatever the passes reported.
	for _, acc := range accounts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec, err := s.movementRepo.RecomputeAccountBalance(ctx, acc.AccountID, defaultCreator)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("recompute account %s: %v", acc.AccountID, err))
			continue
		}
		if !rec.Consistent() {
			s.LogInfo(ctx, "Account balance corrected",
				slog.String("account_id", rec.AccountID),
				slog.String("stored", rec.Stored.String()),
				slog.String("computed", rec.Computed.String()))
		}
		result.Recomputed = append(result.Recomputed, rec)
	}

	s.LogInfo(ctx, "Reconciliation finished",
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("errors", len(result.Errors)),
		slog.Int("accounts_recomputed", len(result.Recomputed)))
	return result, nil
}

// snapshotResolver resolves accounts against the list loaded at the start of the run.
// It is safe for concurrent use because the snapshot is never modified.
func (s *reconcilerService) snapshotResolver(accounts []domain.Account) func(explicit *string, method string) (string, error) {
	active := make(map[string]struct{}, len(accounts))
	for _, acc := range accounts {
		if acc.IsActive {
			active[acc.AccountID] = struct{}{}
		}
	}
	return func(explicit *string, method string) (string, error) {
		if explicit != nil {
			if _, ok := active[*explicit]; ok {
				return *explicit, nil
			}
		}
		return ResolveFromAccounts(s.methodAccounts, accounts, method)
	}
}

func (s *reconcilerService) runPass(
	ctx context.Context,
	p backfillPass,
	existing domain.ReferenceKeySet,
	resolve func(explicit *string, method string) (string, error),
	defaultCreator string,
) (domain.PassResult, []string, error) {
	out := domain.PassResult{Pass: p.name}
	errs := []string{}

	candidates, err := p.load(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return out, errs, err
		}
		// The other passes and the recompute still run; the failed pass is retried by the next run.
		s.LogWarn(ctx, "Backfill pass could not load its source records",
			slog.String("pass", p.name),
			slog.String("error", err.Error()))
		errs = append(errs, fmt.Sprintf("pass %s: load source records: %v", p.name, err))
		return out, errs, nil
	}
	out.Scanned = len(candidates)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return out, errs, err
		}

		if existing.Has(c.draft.Reference) {
			out.Skipped++
			continue
		}

		accountID, err := resolve(c.explicit, c.method)
		if err != nil {
			out.Skipped++
			continue
		}

		draft := c.draft
		draft.AccountID = accountID
		if draft.CreatedBy == "" {
			draft.CreatedBy = defaultCreator
		}

		if err := draft.Validate(); err != nil {
			out.Failed++
			errs = append(errs, fmt.Sprintf("%s: %v", c.label, err))
			continue
		}

		if _, err := s.movementRepo.InsertSynthesizedMovement(ctx, draft); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				// A live posting linked the record after the dedup set was loaded.
				out.Skipped++
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return out, errs, err
			}
			out.Failed++
			errs = append(errs, fmt.Sprintf("%s: %v", c.label, err))
			continue
		}
		out.Created++
	}

	s.LogInfo(ctx, "Backfill pass finished",
		slog.String("pass", out.Pass),
		slog.Int("scanned", out.Scanned),
		slog.Int("created", out.Created),
		slog.Int("skipped", out.Skipped),
		slog.Int("failed", out.Failed))
	return out, errs, nil
}

func (s *reconcilerService) passes() []backfillPass {
	return []backfillPass{
		{name: PassSales, load: func(ctx context.Context) ([]backfillCandidate, error) {
			sales, err := s.sourceRepo.ListPaidCashSales(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]backfillCandidate, 0, len(sales))
			for _, sale := range sales {
				if !sale.Postable() {
					continue
				}
				out = append(out, backfillCandidate{
					label:    "sale " + sale.ID,
					draft:    domain.SaleDraft(sale),
					explicit: sale.PaymentAccountID,
					method:   sale.PaymentMethod,
				})
			}
			return out, nil
		}},
		{name: PassReceivablePayments, load: s.paymentCandidates(domain.Receivable)},
		{name: PassExpenses, load: func(ctx context.Context) ([]backfillCandidate, error) {
			expenses, err := s.sourceRepo.ListExpensesWithoutPayable(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]backfillCandidate, 0, len(expenses))
			for _, e := range expenses {
				if e.HasPayable {
					continue
				}
				out = append(out, backfillCandidate{
					label:    "expense " + e.ID,
					draft:    domain.ExpenseDraft(e),
					explicit: e.PaymentAccountID,
					method:   e.PaymentMethod,
				})
			}
			return out, nil
		}},
		{name: PassPayablePayments, load: s.paymentCandidates(domain.Payable)},
	}
}

func (s *reconcilerService) paymentCandidates(kind domain.PaymentKind) func(ctx context.Context) ([]backfillCandidate, error) {
	return func(ctx context.Context) ([]backfillCandidate, error) {
		payments, err := s.sourceRepo.ListPaymentRecords(ctx, kind)
		if err != nil {
			return nil, err
		}
		out := make([]backfillCandidate, 0, len(payments))
		for _, p := range payments {
			p.Kind = kind
			out = append(out, backfillCandidate{
				label:    string(kind) + " payment " + p.ID,
				draft:    domain.PaymentRecordDraft(p),
				explicit: p.PaymentAccountID,
				method:   p.PaymentMethod,
			})
		}
		return out, nil
	}
}

// VerifyBalances reports stored and computed balances of every account, active or not.
func (s *reconcilerService) VerifyBalances(ctx context.Context) ([]domain.BalanceRecomputation, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, true)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts for verification")
		return nil, err
	}

	report := make([]domain.BalanceRecomputation, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	var mu sync.Mutex
	drifted := 0
	for i, acc := range accounts {
		g.Go(func() error {
			totalIn, totalOut, err := s.movementRepo.SumMovementsByAccount(gctx, acc.AccountID)
			if err != nil {
				return fmt.Errorf("account %s: %w", acc.AccountID, err)
			}
			rec := domain.BalanceRecomputation{
				AccountID:   acc.AccountID,
				AccountName: acc.Name,
				TotalIn:     totalIn,
				TotalOut:    totalOut,
				Stored:      acc.Balance,
				Computed:    totalIn.Sub(totalOut),
			}
			report[i] = rec
			if !rec.Consistent() {
				mu.Lock()
				drifted++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.LogError(ctx, err, "Failed to verify balances")
		return nil, err
	}

	s.LogInfo(ctx, "Balances verified", slog.Int("accounts", len(report)), slog.Int("drifted", drifted))
	return report, nil
}
