package worker

import (
	"context"
	"errors"
	"testing"

	"orcamento/internal/amqp"
	"orcamento/internal/core"
	"orcamento/internal/profiles"
	profilemem "orcamento/internal/profiles/memory"
	"orcamento/internal/storage"
)

type fakeLocal struct {
	stored     map[string]storage.StoredProfile
	pendingErr error
	synced     map[string]int64
	syncErrors map[string]string
}

func newFakeLocal(rows ...storage.StoredProfile) *fakeLocal {
	f := &fakeLocal{
		stored:     map[string]storage.StoredProfile{},
		synced:     map[string]int64{},
		syncErrors: map[string]string{},
	}
	for _, r := range rows {
		f.stored[r.UID] = r
	}
	return f
}

func (f *fakeLocal) GetStored(_ context.Context, uid string) (storage.StoredProfile, error) {
	s, ok := f.stored[uid]
	if !ok {
		return storage.StoredProfile{}, profiles.ErrNotFound
	}
	return s, nil
}

func (f *fakeLocal) GetPendingSync(_ context.Context, limit int) ([]storage.PendingSync, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	var out []storage.PendingSync
	for _, s := range f.stored {
		if s.SyncedVersion < s.Version && len(out) < limit {
			out = append(out, storage.PendingSync{UID: s.UID, Version: s.Version})
		}
	}
	return out, nil
}

func (f *fakeLocal) MarkSynced(_ context.Context, uid string, version int64) error {
	f.synced[uid] = version
	s := f.stored[uid]
	if version > s.SyncedVersion {
		s.SyncedVersion = version
	}
	f.stored[uid] = s
	return nil
}

func (f *fakeLocal) MarkSyncError(_ context.Context, uid string, cause error) error {
	f.syncErrors[uid] = cause.Error()
	return nil
}

func row(uid, name string, version, synced int64) storage.StoredProfile {
	p := core.DefaultCompanyProfile()
	p.Name = name
	return storage.StoredProfile{UID: uid, Profile: p, Version: version, SyncedVersion: synced}
}

func TestHandleSyncMessageMirrorsLatestVersion(t *testing.T) {
	local := newFakeLocal(row("u1", "Padaria", 3, 1))
	remote := profilemem.NewStore()
	w := NewSyncWorker(local, remote, 10)

	// A stale message still mirrors the version currently stored.
	if err := w.HandleSyncMessage(context.Background(), &amqp.ProfileSyncMessage{UID: "u1", Version: 2}); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	got, err := remote.Get(context.Background(), "u1")
	if err != nil || got.Name != "Padaria" {
		t.Fatalf("remote profile = %+v, %v", got, err)
	}
	if local.synced["u1"] != 3 {
		t.Fatalf("synced version = %d, want 3", local.synced["u1"])
	}
}

func TestHandleSyncMessageSkipsMirrored(t *testing.T) {
	local := newFakeLocal(row("u1", "Padaria", 2, 2))
	remote := profilemem.NewStore()
	w := NewSyncWorker(local, remote, 10)

	if err := w.HandleSyncMessage(context.Background(), &amqp.ProfileSyncMessage{UID: "u1", Version: 2}); err != nil {
		t.Fatal(err)
	}
	if remote.Len() != 0 {
		t.Fatalf("expected no remote write, store has %d profiles", remote.Len())
	}
}

func TestHandleSyncMessageUnknownProfileIsDropped(t *testing.T) {
	w := NewSyncWorker(newFakeLocal(), profilemem.NewStore(), 10)
	if err := w.HandleSyncMessage(context.Background(), &amqp.ProfileSyncMessage{UID: "ghost", Version: 1}); err != nil {
		t.Fatalf("expected nil for a vanished profile, got %v", err)
	}
}

func TestHandleSyncMessageRemoteFailure(t *testing.T) {
	local := newFakeLocal(row("u1", "Padaria", 1, 0))
	remote := profilemem.NewStore()
	remote.FailSave = errors.New("firestore unavailable")
	w := NewSyncWorker(local, remote, 10)

	err := w.HandleSyncMessage(context.Background(), &amqp.ProfileSyncMessage{UID: "u1", Version: 1})
	if err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if local.syncErrors["u1"] != "firestore unavailable" {
		t.Fatalf("sync error not recorded: %v", local.syncErrors)
	}
	if _, ok := local.synced["u1"]; ok {
		t.Fatal("profile must not be marked synced after a failed write")
	}
}

func TestProcessPending(t *testing.T) {
	local := newFakeLocal(
		row("a", "A", 2, 1),
		row("b", "B", 1, 0),
		row("c", "C", 4, 4),
	)
	remote := profilemem.NewStore()
	w := NewSyncWorker(local, remote, 10)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if remote.Len() != 2 {
		t.Fatalf("expected 2 mirrored profiles, got %d", remote.Len())
	}
	if local.synced["a"] != 2 || local.synced["b"] != 1 {
		t.Fatalf("unexpected synced versions %v", local.synced)
	}
	if _, ok := local.synced["c"]; ok {
		t.Fatal("up to date profile should not be touched")
	}
}

func TestStartupSyncCheckPropagatesListError(t *testing.T) {
	local := newFakeLocal()
	local.pendingErr = errors.New("database is locked")
	w := NewSyncWorker(local, profilemem.NewStore(), 10)

	if err := w.StartupSyncCheck(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSyncWorkerDefaultBatch(t *testing.T) {
	if w := NewSyncWorker(nil, nil, 0); w.batchSize != 10 {
		t.Fatalf("batchSize = %d, want 10", w.batchSize)
	}
}
