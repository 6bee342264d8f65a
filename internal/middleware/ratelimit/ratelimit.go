// Package ratelimit counts requests per key in fixed one minute windows.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window = time.Minute
	// idleAfter is how long a key may stay quiet before CleanExpired drops it.
	idleAfter = 10 * time.Minute
)

type Config struct {
	RequestsPerMinute int
	// Methods restricts limiting to these methods. Empty limits everything.
	Methods []string
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, Methods: []string{http.MethodPost}}
}

type bucket struct {
	opened time.Time
	seen   time.Time
	count  int
}

// Limiter holds one bucket per key. It runs no goroutine of its own; stale
// buckets go away through CleanExpired, which the cache janitor calls.
type Limiter struct {
	limit   int
	methods map[string]struct{}
	now     func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	rejected atomic.Int64
}

func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	l := &Limiter{
		limit:   cfg.RequestsPerMinute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	if len(cfg.Methods) > 0 {
		l.methods = make(map[string]struct{}, len(cfg.Methods))
		for _, m := range cfg.Methods {
			l.methods[m] = struct{}{}
		}
	}
	return l
}

// Allow records a request for key and reports whether it fits the window.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.take(key)
	return ok
}

// Reserve is Allow plus the time left until the key's window reopens when
// the request does not fit.
func (l *Limiter) Reserve(key string) (bool, time.Duration) {
	return l.take(key)
}

// RetryAfter renders wait as whole seconds for a Retry-After header,
// rounding up and never below one.
func RetryAfter(wait time.Duration) string {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// take also returns how long until the key's window reopens.
func (l *Limiter) take(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil || now.Sub(b.opened) >= window {
		b = &bucket{opened: now}
		l.buckets[key] = b
	}
	b.seen = now
	b.count++
	if b.count <= l.limit {
		return true, 0
	}
	l.rejected.Add(1)
	return false, b.opened.Add(window).Sub(now)
}

// CleanExpired drops keys idle for longer than ten minutes.
func (l *Limiter) CleanExpired() int {
	cutoff := l.now().Add(-idleAfter)

	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{TotalHits: l.rejected.Load(), ClientCount: int64(l.ActiveClients())}
}

func (l *Limiter) limits(r *http.Request) bool {
	if l.methods == nil {
		return true
	}
	_, ok := l.methods[r.Method]
	return ok
}

// Middleware rejects requests over the limit, keyed by keyOf. Retry-After
// carries the seconds left in the window; onLimit writes the body, or a
// plain 429 is sent when it is nil.
func (l *Limiter) Middleware(keyOf func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.limits(r) {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := l.take(keyOf(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", RetryAfter(wait))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Muitas requisições. Tente novamente em instantes.", http.StatusTooManyRequests)
		})
	}
}
