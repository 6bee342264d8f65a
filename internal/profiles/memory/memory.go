// Package memory is an in-process profiles.Repository for development and tests.
package memory

import (
	"context"
	"sync"

	"orcamento/internal/core"
	"orcamento/internal/profiles"
)

type Store struct {
	mu   sync.RWMutex
	data map[string]core.CompanyProfile

	// FailSave, when set, is returned by Save instead of writing.
	FailSave error
	// FailGet, when set, is returned by Get.
	FailGet error
}

func NewStore() *Store {
	return &Store{data: make(map[string]core.CompanyProfile)}
}

func (s *Store) Get(_ context.Context, uid string) (core.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailGet != nil {
		return core.CompanyProfile{}, s.FailGet
	}
	p, ok := s.data[uid]
	if !ok {
		return core.CompanyProfile{}, profiles.ErrNotFound
	}
	return p, nil
}

func (s *Store) Save(_ context.Context, uid string, p core.CompanyProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.data[uid] = p
	return nil
}

// Len returns the number of stored profiles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
