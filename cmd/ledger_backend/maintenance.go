package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/core/services"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
	"github.com/SscSPs/cash_ledger_app/internal/platform/config"
	"github.com/SscSPs/cash_ledger_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/cash_ledger_app/internal/utils"
	"github.com/SscSPs/cash_ledger_app/pkg/database"
	"github.com/urfave/cli/v3"
)

// Exit codes of the maintenance commands, for use from cron and CI.
const (
	exitPartialFailure = 2
	exitDrift          = 3
)

var cmdReconcile = &cli.Command{
	Name:  "reconcile",
	Usage: "Backfill missing movements from business history and recompute account balances",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "created-by",
			Usage: "creator recorded on backfilled movements whose source has none (default: LEDGER_DEFAULT_CREATOR)",
		},
	},
	Action: reconcile,
}

var cmdToken = &cli.Command{
	Name:  "token",
	Usage: "Sign an API token for a cashier or service user",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "subject",
			Usage:    "user ID recorded as creator on ledger writes",
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "ttl",
			Value: 24 * time.Hour,
			Usage: "token lifetime",
		},
	},
	Action: issueToken,
}

var cmdVerify = &cli.Command{
	Name:   "verify",
	Usage:  "Compare stored balances with the movement log without changing anything",
	Action: verify,
}

// withLedger loads config, opens the pool and hands the service container to fn.
func withLedger(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, svc *portssvc.ServiceContainer) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, true)
	if err != nil {
		return fmt.Errorf("failed to initialize database pool: %w", err)
	}
	defer database.ClosePgxPool(dbPool)

	return fn(ctx, cfg, services.NewServiceContainer(cfg, pgsql.NewRepositoryProvider(dbPool)))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func reconcile(ctx context.Context, cmd *cli.Command) error {
	return withLedger(ctx, func(ctx context.Context, cfg *config.Config, svc *portssvc.ServiceContainer) error {
		creator := cmd.String("created-by")
		if creator == "" {
			creator = cfg.DefaultCreator
		}

		if cfg.ReconcileTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.ReconcileTimeout)
			defer cancel()
		}

		result, err := svc.Reconciler.ReconcileHistory(ctx, creator)
		if err != nil {
			return fmt.Errorf("reconciliation failed: %w", err)
		}
		analytics := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, slog.Default())
		defer analytics.Close()
		analytics.Enqueue(creator, "ledger_reconcile", map[string]any{
			"source":          "cli",
			"created":         result.Created,
			"skipped":         result.Skipped,
			"errors":          len(result.Errors),
			"partial_failure": result.PartialFailure(),
		})

		if err := printJSON(dto.ToReconcileResponse(result)); err != nil {
			return err
		}
		if result.PartialFailure() {
			return cli.Exit(fmt.Sprintf("reconciliation finished with %d errors", len(result.Errors)), exitPartialFailure)
		}
		return nil
	})
}

func verify(ctx context.Context, _ *cli.Command) error {
	return withLedger(ctx, func(ctx context.Context, _ *config.Config, svc *portssvc.ServiceContainer) error {
		report, err := svc.Reconciler.VerifyBalances(ctx)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		resp := dto.ToVerifyBalancesResponse(report)
		if err := printJSON(resp); err != nil {
			return err
		}
		if !resp.Consistent {
			return cli.Exit("stored balances drift from the movement log", exitDrift)
		}
		return nil
	})
}

func issueToken(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	token, err := utils.GenerateJWT(cmd.String("subject"), cfg.JWTSecret, cmd.Duration("ttl"), cfg.JWTIssuer)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to sign token: %v", err), 1)
	}
	fmt.Println(token)
	return nil
}
