// Package cache provides the in-process caches used for company profiles
// and rendered logos.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a keyed store with expiring entries.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries eagerly.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans every registered cache until its context ends.
type Janitor struct {
	caches []Cleaner
	done   chan struct{}
}

func NewJanitor(caches ...Cleaner) *Janitor {
	return &Janitor{caches: caches, done: make(chan struct{})}
}

// Register adds a cache. It must be called before Run.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

// Run blocks, sweeping the caches every interval, and returns when ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				slog.Debug("Cache cleanup completed", "expired", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sweep cleans all caches once and returns the number of dropped entries.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Done is closed when Run returns.
func (j *Janitor) Done() <-chan struct{} {
	return j.done
}
