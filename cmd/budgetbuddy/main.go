package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"budgetbuddy/internal/backend"
	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/config"
	"budgetbuddy/internal/export/sheets"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/session"
	"budgetbuddy/internal/tokenstore"
	"budgetbuddy/internal/tui"
	"budgetbuddy/internal/view/reports"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "budgetbuddy:", err)
		os.Exit(1)
	}
}

func run() error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	// The terminal UI owns the screen, so logs go to a file.
	logger, logCloser, err := cli.SetupLogger(cfg.LogLevel, cli.TerminalLogFile(cfg), log.ComponentApp)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	logger.Info("Starting budgetbuddy",
		log.FieldOperation, log.OpStartup,
		"backend", cfg.DataBackend,
		"token_store", cfg.TokenStore)

	store, err := cli.OpenTokenStore(cfg, logger)
	if err != nil {
		return err
	}
	tokens := tokenstore.NewCache(store)
	defer tokens.Close()

	ctx, stop := cli.GracefulShutdown(logger, 5*time.Second, nil)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg, tokens)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		}
	}()

	sess := session.New(res.Remote, tokens,
		session.WithPublisher(res.Events),
		session.WithLogger(logger))
	defer sess.Close()

	deps := tui.Deps{
		Session:  sess,
		Expenses: res.Expenses,
		Budgets:  res.Budgets,
		Exporter: exporter(ctx, cfg, logger),
		Logger:   logger,
	}
	if cfg.ReportsSource == config.ReportsSourceAPI {
		deps.ReportsSource = remote.ExpenseLister(res.Expenses)
	}

	if err := tui.Run(ctx, deps); err != nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	logger.Info("Stopped budgetbuddy", log.FieldOperation, log.OpShutdown)
	return nil
}

// exporter connects report export when configured. A failure only disables
// the feature.
func exporter(ctx context.Context, cfg *config.Config, logger *log.Logger) reports.Exporter {
	if !cfg.ExportEnabled() {
		logger.Info("Report export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil
	}
	e, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		Sheet:           cfg.GoogleReportSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Warn("Failed to initialize report export", log.FieldError, err)
		return nil
	}
	logger.Info("Report export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleReportSheet)
	return e
}
