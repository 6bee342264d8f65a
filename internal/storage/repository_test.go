package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"orcamento/internal/core"
	"orcamento/internal/profiles"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "orcamento.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGetMissingProfile(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "nobody"); !errors.Is(err, profiles.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveProfileBumpsVersion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := core.CompanyProfile{Name: "Loja", Address: "Rua 1", WhatsApp: "9", Instagram: "@loja", Logo: "data:image/png;base64,AA=="}

	v1, err := repo.SaveProfile(ctx, "u1", p)
	if err != nil {
		t.Fatal(err)
	}
	p.Name = "Loja Nova"
	v2, err := repo.SaveProfile(ctx, "u1", p)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != 1 || v2 != 2 {
		t.Fatalf("versions = %d, %d", v1, v2)
	}

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Fatalf("Get = %+v, want %+v", got, p)
	}

	sp, err := repo.GetStored(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if sp.Version != 2 || sp.SyncedVersion != 0 {
		t.Fatalf("unexpected versions %+v", sp)
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, uid := range []string{"a", "b"} {
		if err := repo.Save(ctx, uid, core.DefaultCompanyProfile()); err != nil {
			t.Fatal(err)
		}
	}
	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %v", pending)
	}

	if err := repo.MarkSynced(ctx, "a", 1); err != nil {
		t.Fatal(err)
	}
	pending, _ = repo.GetPendingSync(ctx, 10)
	if len(pending) != 1 || pending[0].UID != "b" {
		t.Fatalf("expected only b pending, got %v", pending)
	}

	// A newer save makes a pending again; an out of order ack does not
	// move the marker backwards.
	if err := repo.Save(ctx, "a", core.DefaultCompanyProfile()); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkSynced(ctx, "a", 2); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkSynced(ctx, "a", 1); err != nil {
		t.Fatal(err)
	}
	sp, _ := repo.GetStored(ctx, "a")
	if sp.SyncedVersion != 2 {
		t.Fatalf("synced_version = %d, want 2", sp.SyncedVersion)
	}
}

func TestMarkSyncError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Save(ctx, "u1", core.DefaultCompanyProfile()); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkSyncError(ctx, "u1", errors.New("firestore unavailable")); err != nil {
		t.Fatal(err)
	}
	msg, err := repo.SyncError(ctx, "u1")
	if err != nil || msg != "firestore unavailable" {
		t.Fatalf("SyncError = %q, %v", msg, err)
	}
	if err := repo.MarkSynced(ctx, "u1", 1); err != nil {
		t.Fatal(err)
	}
	if msg, _ := repo.SyncError(ctx, "u1"); msg != "" {
		t.Fatalf("sync error not cleared: %q", msg)
	}
}

func TestParseTimestamp(t *testing.T) {
	if parseTimestamp("2024-03-01 10:20:30").IsZero() {
		t.Fatal("CURRENT_TIMESTAMP form not parsed")
	}
	if parseTimestamp("2024-03-01T10:20:30Z").IsZero() {
		t.Fatal("RFC 3339 form not parsed")
	}
	if !parseTimestamp("garbage").IsZero() {
		t.Fatal("garbage should parse to zero time")
	}
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	for i := 0; i < 2; i++ {
		v, err := RunMigrations(path)
		if err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
		if v != 1 {
			t.Errorf("run %d: schema version = %d, want 1", i+1, v)
		}
	}
}
