package services

import (
	"context"
	"errors"
	"testing"

	"orcamento/internal/core"
	"orcamento/internal/profiles"
)

type fakeVersioned struct {
	data    map[string]core.CompanyProfile
	version int64
	err     error
}

func (f *fakeVersioned) Get(_ context.Context, uid string) (core.CompanyProfile, error) {
	p, ok := f.data[uid]
	if !ok {
		return core.CompanyProfile{}, profiles.ErrNotFound
	}
	return p, nil
}

func (f *fakeVersioned) SaveProfile(_ context.Context, uid string, p core.CompanyProfile) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.data == nil {
		f.data = map[string]core.CompanyProfile{}
	}
	f.data[uid] = p
	f.version++
	return f.version, nil
}

type published struct {
	uid     string
	version int64
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) PublishProfileSync(_ context.Context, uid string, version int64) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{uid, version})
	return nil
}

func TestProfileStoreSavePublishesVersion(t *testing.T) {
	local := &fakeVersioned{}
	pub := &fakePublisher{}
	s := NewProfileStore(local, pub)

	p := core.DefaultCompanyProfile()
	p.Name = "Gráfica Rio"
	for i := 0; i < 2; i++ {
		if err := s.Save(context.Background(), "u1", p); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	if len(pub.sent) != 2 || pub.sent[1] != (published{"u1", 2}) {
		t.Fatalf("unexpected messages %+v", pub.sent)
	}
	got, err := s.Get(context.Background(), "u1")
	if err != nil || got.Name != "Gráfica Rio" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestProfileStorePublishFailureDoesNotFailSave(t *testing.T) {
	s := NewProfileStore(&fakeVersioned{}, &fakePublisher{err: errors.New("circuit breaker is open")})
	if err := s.Save(context.Background(), "u1", core.DefaultCompanyProfile()); err != nil {
		t.Fatalf("publish failures must not fail the save: %v", err)
	}
}

func TestProfileStoreLocalFailure(t *testing.T) {
	pub := &fakePublisher{}
	s := NewProfileStore(&fakeVersioned{err: errors.New("disk full")}, pub)
	if err := s.Save(context.Background(), "u1", core.DefaultCompanyProfile()); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.sent) != 0 {
		t.Fatal("nothing should be published when the write failed")
	}
}

func TestProfileStoreWithoutPublisher(t *testing.T) {
	s := NewProfileStore(&fakeVersioned{}, nil)
	if err := s.Save(context.Background(), "u1", core.DefaultCompanyProfile()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, profiles.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
