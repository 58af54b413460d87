package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

//go:generate swag init -g cmd/ledger_backend/main.go -o cmd/docs -d ../../

// @title Cash Ledger API
// @version 1.0
// @description Cash and bank ledger: accounts, movements, business postings and historical reconciliation.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger; every command logs through the default logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "ledger_backend",
		Usage: "Cash ledger API server and maintenance commands",
		Commands: []*cli.Command{
			cmdServe,
			cmdMigrate,
			cmdReconcile,
			cmdVerify,
			cmdToken,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
