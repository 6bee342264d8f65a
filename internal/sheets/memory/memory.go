package memory

import (
	"context"
	"fmt"
	"sync"

	"orcamento/internal/sheets"
)

// Store keeps appended rows in memory.
type Store struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Store {
	return &Store{}
}

// AppendQuote stores the rows and returns a synthetic row reference.
func (s *Store) AppendQuote(_ context.Context, rec sheets.QuoteRecord) (string, error) {
	rows := sheets.Rows(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	first := len(s.rows) + 1
	s.rows = append(s.rows, rows...)
	return fmt.Sprintf("mem:%d-%d", first, len(s.rows)), nil
}

// Rows returns a copy of everything written so far.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.rows...)
}
