// Package worker mirrors locally stored company profiles into the hosted
// document store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orcamento/internal/amqp"
	"orcamento/internal/profiles"
	"orcamento/internal/storage"
)

// LocalStore is the SQLite side of the mirror.
type LocalStore interface {
	GetStored(ctx context.Context, uid string) (storage.StoredProfile, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	MarkSynced(ctx context.Context, uid string, version int64) error
	MarkSyncError(ctx context.Context, uid string, cause error) error
}

// SyncWorker copies profiles from SQLite into the document store
type SyncWorker struct {
	local     LocalStore
	remote    profiles.Writer
	batchSize int
}

func NewSyncWorker(local LocalStore, remote profiles.Writer, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		local:     local,
		remote:    remote,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single profile sync message from AMQP.
// The profile is read fresh, so the latest version is always what gets
// mirrored even when messages arrive out of order.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ProfileSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"uid", msg.UID,
		"version", msg.Version)

	stored, err := w.local.GetStored(ctx, msg.UID)
	if errors.Is(err, profiles.ErrNotFound) {
		slog.WarnContext(ctx, "Profile no longer stored, dropping sync message", "uid", msg.UID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get profile from storage: %w", err)
	}

	if stored.SyncedVersion >= stored.Version {
		slog.DebugContext(ctx, "Profile already mirrored",
			"uid", msg.UID,
			"version", stored.Version)
		return nil
	}

	return w.mirror(ctx, stored)
}

// ProcessPending mirrors one batch of profiles whose latest version has not
// reached the document store. It covers lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck runs a larger pending pass when the worker starts, to
// recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		slog.InfoContext(ctx, "No pending profiles found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.local.GetPendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending profiles: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending profiles", "count", len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		stored, err := w.local.GetStored(ctx, p.UID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get profile", "uid", p.UID, "error", err)
			failed++
			continue
		}
		if err := w.mirror(ctx, stored); err != nil {
			slog.ErrorContext(ctx, "Failed to sync profile", "uid", p.UID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (w *SyncWorker) mirror(ctx context.Context, stored storage.StoredProfile) error {
	if err := w.remote.Save(ctx, stored.UID, stored.Profile); err != nil {
		if markErr := w.local.MarkSyncError(ctx, stored.UID, err); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "uid", stored.UID, "error", markErr)
		}
		return fmt.Errorf("save to document store: %w", err)
	}

	// The mirror worked even if the bookkeeping below fails; the next
	// pending pass just writes the same document again.
	if err := w.local.MarkSynced(ctx, stored.UID, stored.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "uid", stored.UID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced profile",
		"uid", stored.UID,
		"version", stored.Version)
	return nil
}
