package services

import (
	"context"
	"fmt"
	"log/slog"

	"orcamento/internal/core"
	"orcamento/internal/profiles"
)

// VersionedStore is a local profile store that numbers every write.
type VersionedStore interface {
	Get(ctx context.Context, uid string) (core.CompanyProfile, error)
	SaveProfile(ctx context.Context, uid string, p core.CompanyProfile) (int64, error)
}

// SyncPublisher announces profile writes to the sync worker.
type SyncPublisher interface {
	PublishProfileSync(ctx context.Context, uid string, version int64) error
}

// ProfileStore saves profiles locally and publishes a sync message so the
// worker mirrors them into the document store.
type ProfileStore struct {
	local     VersionedStore
	publisher SyncPublisher
}

var _ profiles.Repository = (*ProfileStore)(nil)

// NewProfileStore wraps local. A nil publisher disables sync messages; the
// worker's pending pass still picks the profiles up.
func NewProfileStore(local VersionedStore, publisher SyncPublisher) *ProfileStore {
	return &ProfileStore{
		local:     local,
		publisher: publisher,
	}
}

func (s *ProfileStore) Get(ctx context.Context, uid string) (core.CompanyProfile, error) {
	return s.local.Get(ctx, uid)
}

// Save writes to SQLite first. A failed publish is logged but does not fail
// the save: the profile is stored and stays pending until mirrored.
func (s *ProfileStore) Save(ctx context.Context, uid string, p core.CompanyProfile) error {
	version, err := s.local.SaveProfile(ctx, uid, p)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "uid", uid)
		return nil
	}
	if err := s.publisher.PublishProfileSync(ctx, uid, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"uid", uid,
			"version", version,
			"error", err)
	}
	return nil
}
