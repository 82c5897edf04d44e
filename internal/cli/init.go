// Package cli provides common CLI initialization utilities shared by
// cmd/budgetbuddy and cmd/budgetbuddy-events.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetbuddy/internal/config"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/tokenstore"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

var userCacheDir = os.UserCacheDir

// TerminalLogFile picks where the terminal client logs when LOG_FILE is unset:
// beside the SQLite token database when one is configured, else the user
// cache directory. An empty result means stderr.
func TerminalLogFile(cfg *config.Config) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	if cfg.TokenStore == config.TokenStoreSQLite && cfg.TokenDBPath != "" {
		return filepath.Join(filepath.Dir(cfg.TokenDBPath), "budgetbuddy.log")
	}
	dir, err := userCacheDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "budgetbuddy", "budgetbuddy.log")
}

// SetupLogger builds the application logger and sets it as the default.
// With logFile set, output is appended there; otherwise it goes to stderr.
// The returned closer releases the file.
func SetupLogger(level, logFile, component string) (*log.Logger, io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenTokenStore opens the configured token store.
func OpenTokenStore(cfg *config.Config, logger *log.Logger) (tokenstore.Store, error) {
	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		logger.Info("Using in-memory token store")
		return tokenstore.NewMemory(), nil
	case config.TokenStoreSQLite:
		store, err := tokenstore.NewSQLite(cfg.TokenDBPath)
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		logger.Info("Using SQLite token store", "path", cfg.TokenDBPath)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported token store: %s", cfg.TokenStore)
	}
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs once, after cancellation, bounded by timeout. stop releases the
// signal handler; call it when the program ends on its own.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
			return
		}
		cancel()

		done := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(done)
		}()
		select {
		case <-done:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
