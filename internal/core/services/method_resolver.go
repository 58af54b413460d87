package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/cash_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
)

// DefaultMethodAccounts maps normalised payment methods to canonical account names.
var DefaultMethodAccounts = map[string]string{
	"efectivo":      "Efectivo",
	"cash":          "Efectivo",
	"transferencia": "Banco",
	"bank_transfer": "Banco",
	"tarjeta":       "Banco",
	"card":          "Banco",
	"nequi":         "Nequi",
	"daviplata":     "Daviplata",
}

// NormalizeMethod lower-cases a payment method and joins its words with underscores.
func NormalizeMethod(method string) string {
	m := strings.ToLower(strings.TrimSpace(method))
	return strings.NewReplacer("-", "_", " ", "_").Replace(m)
}

// MergeMethodAccounts returns the default mapping extended and overridden by overrides.
// Override keys are normalised; empty account names are ignored.
func MergeMethodAccounts(overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(DefaultMethodAccounts)+len(overrides))
	for k, v := range DefaultMethodAccounts {
		merged[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) == "" {
			continue
		}
		merged[NormalizeMethod(k)] = strings.TrimSpace(v)
	}
	return merged
}

// ResolveFromAccounts picks the account for method from accounts, which must be ordered by
// (created_at, account_id). Inactive accounts are ignored. When the mapped account is missing the
// oldest active account is used.
func ResolveFromAccounts(methodAccounts map[string]string, accounts []domain.Account, method string) (string, error) {
	var fallback *domain.Account
	for i := range accounts {
		if accounts[i].IsActive {
			fallback = &accounts[i]
			break
		}
	}
	if fallback == nil {
		return "", fmt.Errorf("%w: no active accounts", apperrors.ErrAccountNotFound)
	}

	if name, ok := methodAccounts[NormalizeMethod(method)]; ok {
		for _, acc := range accounts {
			if acc.IsActive && acc.NameMatches(name) {
				return acc.AccountID, nil
			}
		}
	}
	return fallback.AccountID, nil
}

type methodResolverService struct {
	BaseService
	accountRepo    portsrepo.AccountReader
	methodAccounts map[string]string
}

// NewMethodResolverService creates a resolver over the live account list.
func NewMethodResolverService(accountRepo portsrepo.AccountReader, methodAccounts map[string]string) portssvc.MethodResolverSvc {
	if methodAccounts == nil {
		methodAccounts = MergeMethodAccounts(nil)
	}
	return &methodResolverService{accountRepo: accountRepo, methodAccounts: methodAccounts}
}

var _ portssvc.MethodResolverSvc = (*methodResolverService)(nil)

func (s *methodResolverService) ResolveAccountForMethod(ctx context.Context, method string) (string, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, false)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts for method resolution", slog.String("method", method))
		return "", err
	}

	accountID, err := ResolveFromAccounts(s.methodAccounts, accounts, method)
	if err != nil {
		s.LogWarn(ctx, "No account available for payment method", slog.String("method", method))
		return "", err
	}

	s.LogDebug(ctx, "Resolved payment method", slog.String("method", method), slog.String("account_id", accountID))
	return accountID, nil
}
