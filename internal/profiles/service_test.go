package profiles_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"orcamento/internal/core"
	"orcamento/internal/profiles"
	"orcamento/internal/profiles/memory"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	svc := profiles.NewService(memory.NewStore(), time.Minute)
	if got := svc.Load(context.Background(), "u1"); got != core.DefaultCompanyProfile() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestLoadDefaultsOnReadError(t *testing.T) {
	store := memory.NewStore()
	store.FailGet = errors.New("unavailable")
	svc := profiles.NewService(store, time.Minute)
	if got := svc.Load(context.Background(), "u1"); got != core.DefaultCompanyProfile() {
		t.Fatalf("expected defaults, got %+v", got)
	}

	// A read failure is not cached.
	store.FailGet = nil
	want := core.CompanyProfile{Name: "Loja"}
	if err := store.Save(context.Background(), "u1", want); err != nil {
		t.Fatal(err)
	}
	if got := svc.Load(context.Background(), "u1"); got != want {
		t.Fatalf("expected stored profile after recovery, got %+v", got)
	}
}

func TestSaveThenLoad(t *testing.T) {
	store := memory.NewStore()
	svc := profiles.NewService(store, time.Minute)
	in := core.CompanyProfile{Name: "  Gráfica Sol ", Address: "Av. B", WhatsApp: "1", Instagram: "@sol"}

	saved, err := svc.Save(context.Background(), "u1", in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Name != "Gráfica Sol" {
		t.Fatalf("name not trimmed: %q", saved.Name)
	}
	if got := svc.Load(context.Background(), "u1"); got != saved {
		t.Fatalf("Load = %+v, want %+v", got, saved)
	}
	if stored, _ := store.Get(context.Background(), "u1"); stored != saved {
		t.Fatalf("store holds %+v", stored)
	}
}

func TestFailedSaveKeepsPreviousProfile(t *testing.T) {
	store := memory.NewStore()
	svc := profiles.NewService(store, time.Minute)
	ctx := context.Background()

	first, err := svc.Save(ctx, "u1", core.CompanyProfile{Name: "Antiga"})
	if err != nil {
		t.Fatal(err)
	}

	store.FailSave = errors.New("permission denied")
	if _, err := svc.Save(ctx, "u1", core.CompanyProfile{Name: "Nova"}); err == nil {
		t.Fatal("expected save error")
	}
	if got := svc.Load(ctx, "u1"); got != first {
		t.Fatalf("profile changed after failed save: %+v", got)
	}
}

func TestSaveRejectsInvalidProfile(t *testing.T) {
	store := memory.NewStore()
	svc := profiles.NewService(store, time.Minute)
	_, err := svc.Save(context.Background(), "u1", core.CompanyProfile{Name: strings.Repeat("a", 201)})
	if !errors.Is(err, profiles.ErrInvalidProfile) || !errors.Is(err, core.ErrFieldTooLong) {
		t.Fatalf("expected invalid profile error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("invalid profile was written")
	}
}

func TestForgetDropsCache(t *testing.T) {
	store := memory.NewStore()
	svc := profiles.NewService(store, time.Minute)
	ctx := context.Background()
	if _, err := svc.Save(ctx, "u1", core.CompanyProfile{Name: "A"}); err != nil {
		t.Fatal(err)
	}
	// Change the store behind the service's back.
	_ = store.Save(ctx, "u1", core.CompanyProfile{Name: "B"})
	if got := svc.Load(ctx, "u1"); got.Name != "A" {
		t.Fatalf("expected cached value, got %q", got.Name)
	}
	svc.Forget("u1")
	if got := svc.Load(ctx, "u1"); got.Name != "B" {
		t.Fatalf("expected fresh value after Forget, got %q", got.Name)
	}
}
