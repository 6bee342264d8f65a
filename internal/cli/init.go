// Package cli holds the startup steps shared by cmd/orcamento and
// cmd/orcamento-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"orcamento/internal/config"
	appLog "orcamento/internal/log"
	"orcamento/internal/storage"
)

// Bootstrap reads .env when present, installs the process logger for
// component at LOG_LEVEL in LOG_FORMAT and loads the validated configuration. The logger
// is returned even when the configuration is rejected so the caller can
// report why.
func Bootstrap(component string) (*appLog.Logger, *config.Config, error) {
	// .env only exists on developer machines
	_ = godotenv.Load()

	logCfg := appLog.DefaultConfig()
	logCfg.Component = component
	logCfg.Level = appLog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if f := os.Getenv("LOG_FORMAT"); f != "" {
		logCfg.Format = f
	}
	logger := appLog.New(logCfg)
	appLog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return logger, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return logger, cfg, nil
}

// OpenSQLite opens the local profile database, creating and migrating it
// as needed.
func OpenSQLite(path string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return nil, fmt.Errorf("sqlite %s: %w", path, err)
	}
	return repo, nil
}

// SignalContext is canceled on SIGINT or SIGTERM.
func SignalContext(logger *appLog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	context.AfterFunc(ctx, func() {
		logger.Info("Shutdown signal received", appLog.FieldOperation, appLog.OpShutdown)
	})
	return ctx, stop
}
