package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	appLog "orcamento/internal/log"
)

// PendingSyncer mirrors one batch of profiles that are not synced yet.
type PendingSyncer interface {
	ProcessPending(ctx context.Context) error
}

type SyncProcessorConfig struct {
	// PollInterval separates two sweeps over the pending profiles.
	PollInterval time.Duration
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{PollInterval: time.Minute}
}

var ErrProcessorRunning = errors.New("sync processor already running")

// SyncProcessor sweeps pending profiles on a timer so a version is mirrored
// even when its broker message was lost. The first sweep runs on Start.
type SyncProcessor struct {
	syncer PendingSyncer
	config SyncProcessorConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	sweeps int
	failed int
}

func NewSyncProcessor(syncer PendingSyncer, config SyncProcessorConfig) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	return &SyncProcessor{syncer: syncer, config: config}
}

func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrProcessorRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx, p.done)

	slog.InfoContext(ctx, "Sync processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop ends the loop and waits for an in-flight sweep until ctx expires.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.cancel, p.done = nil, nil
	sweeps, failed := p.sweeps, p.failed
	p.mu.Unlock()
	slog.InfoContext(ctx, "Sync processor stopped", "sweeps", sweeps, "failed", failed)
	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Sweeps reports how many sweeps ran and how many of them failed.
func (p *SyncProcessor) Sweeps() (total, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sweeps, p.failed
}

func (p *SyncProcessor) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		p.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *SyncProcessor) sweep(ctx context.Context) {
	err := p.syncer.ProcessPending(ctx)

	p.mu.Lock()
	p.sweeps++
	if err != nil {
		p.failed++
	}
	p.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		appLog.ForRequest(ctx).LogError(ctx, "Pending profile sync failed", err,
			appLog.ComponentWorker, appLog.OpSync, appLog.NewFields())
	}
}
