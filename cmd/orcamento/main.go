package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"orcamento/internal/backend"
	"orcamento/internal/budget"
	"orcamento/internal/cache"
	"orcamento/internal/cli"
	"orcamento/internal/config"
	"orcamento/internal/export"
	"orcamento/internal/extraction/gemini"
	apphttp "orcamento/internal/http"
	appLog "orcamento/internal/log"
	"orcamento/internal/profiles"
	"orcamento/internal/services"
)

const (
	shutdownTimeout  = 30 * time.Second
	cacheSweepPeriod = 5 * time.Minute
	logoCacheTTL     = time.Hour
)

func main() {
	logger, cfg, err := cli.Bootstrap(appLog.ComponentApp)
	if err != nil {
		logger.Error("Startup failed", "error", err)
		os.Exit(1)
	}

	if err := run(logger, cfg); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run wires the app and serves until a shutdown signal arrives. Deferred
// cleanups run before main exits.
func run(logger *appLog.Logger, cfg *config.Config) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend configuration: %w", err)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}
	defer func() {
		if result.Cleanup == nil {
			return
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()
	b := result.Backend

	extractor, err := gemini.New(ctx, cfg.GeminiAPIKey, gemini.WithModel(cfg.GeminiModel))
	if err != nil {
		return err
	}

	logos := export.NewLogoSource(&http.Client{Timeout: 15 * time.Second}, logoCacheTTL)
	profileSvc := profiles.NewService(b.Profiles, cfg.ProfileCacheTTL)
	budgetSvc := services.NewBudgetService(
		budget.NewRegistry(),
		extractor,
		profileSvc,
		export.NewPDFRenderer(logos),
		b.Archive,
	)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:              ":" + cfg.Port,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		SessionTTL:        cfg.SessionTTL,
		RequestsPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Budget:   budgetSvc,
		Profiles: profileSvc,
		Identity: b.Identity,
		Ping:     b.Ping,
		Logger:   logger,
	})

	janitor := cache.NewJanitor(profileSvc.Cache(), logos.Cache())
	for _, c := range srv.Caches() {
		janitor.Register(c)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		janitor.Run(gctx, cacheSweepPeriod)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting orcamento server",
			"addr", srv.Addr,
			appLog.FieldOperation, appLog.OpStartup,
			"data_backend", cfg.DataBackend,
			"auth_backend", cfg.AuthBackend,
			"extraction_model", extractor.Model(),
			"archive_enabled", b.Archive != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err, appLog.FieldOperation, appLog.OpShutdown)
			return err
		}
		return nil
	})

	return g.Wait()
}
