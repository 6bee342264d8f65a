package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"orcamento/internal/amqp"
	"orcamento/internal/cli"
	"orcamento/internal/config"
	appLog "orcamento/internal/log"
	fsprofiles "orcamento/internal/profiles/firestore"
	"orcamento/internal/services"
	"orcamento/internal/worker"
)

const stopTimeout = 30 * time.Second

func main() {
	logger, cfg, err := cli.Bootstrap(appLog.ComponentWorker)
	if err != nil {
		logger.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Starting orcamento-worker")
	if cfg.FirebaseProjectID == "" {
		logger.Error("FIREBASE_PROJECT_ID is required to mirror profiles")
		os.Exit(1)
	}

	if err := run(logger, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(logger *appLog.Logger, cfg *config.Config) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	local, err := cli.OpenSQLite(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer local.Close()

	remote, err := fsprofiles.Open(ctx, cfg.FirebaseProjectID, cfg.GoogleCredentialsFile)
	if err != nil {
		return fmt.Errorf("open firestore: %w", err)
	}
	defer remote.Close()

	syncWorker := worker.NewSyncWorker(local, remote, cfg.SyncBatchSize)

	// Recover whatever was saved while the worker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	processor := services.NewSyncProcessor(syncWorker, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
	})
	if err := processor.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := processor.Stop(stopCtx); err != nil {
			logger.Warn("Sync processor did not stop cleanly", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()

		g.Go(func() error {
			return client.ConsumeProfileSync(gctx, syncWorker.HandleSyncMessage)
		})
	} else {
		logger.Info("AMQP not configured, relying on periodic sync",
			"interval", cfg.SyncInterval)
	}
	g.Go(func() error {
		<-gctx.Done()
		return gctx.Err()
	})

	return g.Wait()
}
