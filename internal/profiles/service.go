package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"orcamento/internal/cache"
	"orcamento/internal/core"
)

// ErrInvalidProfile wraps validation failures returned by Save.
var ErrInvalidProfile = errors.New("invalid company profile")

// Service fronts a Repository with a per-user cache.
//
// Reads never fail: a missing document or a read error yields the default
// profile. The cache only ever holds what the repository confirmed, so a
// failed Save leaves the previous profile in place.
type Service struct {
	repo  Repository
	cache *cache.LRUCache[core.CompanyProfile]
}

const defaultCacheSize = 256

func NewService(repo Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		repo:  repo,
		cache: cache.NewLRUCache[core.CompanyProfile](defaultCacheSize, ttl),
	}
}

// Cache exposes the profile cache so it can be swept periodically.
func (s *Service) Cache() cache.Cleaner { return s.cache }

// Load returns the profile of uid, falling back to the defaults.
func (s *Service) Load(ctx context.Context, uid string) core.CompanyProfile {
	if p, ok := s.cache.Get(uid); ok {
		return p
	}

	p, err := s.repo.Get(ctx, uid)
	switch {
	case err == nil:
		s.cache.Set(uid, p)
		return p
	case errors.Is(err, ErrNotFound):
		slog.DebugContext(ctx, "No stored company profile, using defaults", "uid", uid)
		return core.DefaultCompanyProfile()
	default:
		// Not cached, so the next load retries the store.
		slog.ErrorContext(ctx, "Failed to load company profile", "uid", uid, "error", err)
		return core.DefaultCompanyProfile()
	}
}

// Save validates and persists p. The cached profile changes only after the
// repository accepted the write.
func (s *Service) Save(ctx context.Context, uid string, p core.CompanyProfile) (core.CompanyProfile, error) {
	p = Clean(p)
	if err := p.Validate(); err != nil {
		return core.CompanyProfile{}, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if err := s.repo.Save(ctx, uid, p); err != nil {
		slog.ErrorContext(ctx, "Failed to save company profile", "uid", uid, "error", err)
		return core.CompanyProfile{}, fmt.Errorf("save company profile: %w", err)
	}
	s.cache.Set(uid, p)
	slog.InfoContext(ctx, "Company profile saved", "uid", uid)
	return p, nil
}

// Forget drops the cached profile of uid. Called on sign-out.
func (s *Service) Forget(uid string) {
	s.cache.Delete(uid)
}

// Clean trims surrounding whitespace from the text fields. The logo is kept
// as given because inline payloads can be large.
func Clean(p core.CompanyProfile) core.CompanyProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.Address = strings.TrimSpace(p.Address)
	p.WhatsApp = strings.TrimSpace(p.WhatsApp)
	p.Instagram = strings.TrimSpace(p.Instagram)
	p.Logo = strings.TrimSpace(p.Logo)
	return p
}
