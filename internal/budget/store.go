// Package budget holds the line items of the quote being edited.
package budget

import (
	"sync"

	"orcamento/internal/core"
)

// Snapshot is an immutable view of the items at one point in time.
type Snapshot struct {
	items []core.LineItem
}

// Items returns a copy of the items in display order.
func (s Snapshot) Items() []core.LineItem {
	out := make([]core.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s Snapshot) Len() int { return len(s.items) }

func (s Snapshot) IsEmpty() bool { return len(s.items) == 0 }

// Summary derives the totals from the snapshot's items.
func (s Snapshot) Summary() core.BudgetSummary {
	return core.Summarize(s.items)
}

// Find returns the item with the given id.
func (s Snapshot) Find(id string) (core.LineItem, bool) {
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return core.LineItem{}, false
}

// Store is the ordered item collection of one user. It is safe for
// concurrent use; every mutation replaces the backing slice, so snapshots
// handed out earlier never change.
type Store struct {
	mu    sync.RWMutex
	items []core.LineItem
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns the current items.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{items: s.items}
}

// Add appends a blank item (quantity 1, price 0, no description).
func (s *Store) Add() Snapshot {
	return s.Append(core.NewLineItem())
}

// Append adds item at the end.
func (s *Store) Append(item core.LineItem) Snapshot {
	return s.AddBatch([]core.LineItem{item})
}

// AddBatch appends items after the existing ones, keeping their order.
func (s *Store) AddBatch(items []core.LineItem) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(items) == 0 {
		return Snapshot{items: s.items}
	}
	next := make([]core.LineItem, 0, len(s.items)+len(items))
	next = append(next, s.items...)
	next = append(next, items...)
	s.items = next
	return Snapshot{items: next}
}

// Update merges the non-nil fields of patch into the item with the given
// id. An unknown id leaves the store unchanged.
func (s *Store) Update(id string, patch core.LineItemPatch) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 || patch.IsEmpty() {
		return Snapshot{items: s.items}
	}
	next := make([]core.LineItem, len(s.items))
	copy(next, s.items)
	next[idx] = next[idx].Apply(patch)
	s.items = next
	return Snapshot{items: next}
}

// Remove deletes the item with the given id. An unknown id is a no-op.
func (s *Store) Remove(id string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return Snapshot{items: s.items}
	}
	next := make([]core.LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	s.items = next
	return Snapshot{items: next}
}

// Clear removes every item.
func (s *Store) Clear() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return Snapshot{}
}

func (s *Store) indexOf(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
