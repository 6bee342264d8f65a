package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func limiterAt(cfg Config) (*Limiter, *fakeClock) {
	l := NewLimiter(cfg)
	c := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	l.now = c.now
	return l, c
}

func TestLimiterWindows(t *testing.T) {
	l, clock := limiterAt(Config{RequestsPerMinute: 3})

	var got []bool
	for i := 0; i < 4; i++ {
		got = append(got, l.Allow("10.0.0.1"))
	}
	if want := []bool{true, true, true, false}; !equal(got, want) {
		t.Fatalf("Allow sequence = %v, want %v", got, want)
	}
	if !l.Allow("10.0.0.2") {
		t.Error("a second key has its own budget")
	}

	clock.advance(window)
	if !l.Allow("10.0.0.1") {
		t.Error("budget should refill when the window closes")
	}
	if m := l.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestWindowIsFixedNotSliding(t *testing.T) {
	l, clock := limiterAt(Config{RequestsPerMinute: 2})
	l.Allow("k")
	clock.advance(40 * time.Second)
	l.Allow("k")
	clock.advance(40 * time.Second)
	if !l.Allow("k") {
		t.Fatal("window opened 80s ago; this request starts a fresh one")
	}
}

func TestZeroLimitUsesDefault(t *testing.T) {
	if l := NewLimiter(Config{}); l.limit != 60 {
		t.Errorf("limit = %d, want 60", l.limit)
	}
}

func TestCleanExpiredDropsIdleKeys(t *testing.T) {
	l, clock := limiterAt(Config{RequestsPerMinute: 10})
	l.Allow("quiet")
	clock.advance(idleAfter + time.Second)
	l.Allow("busy")

	if n := l.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if n := l.ActiveClients(); n != 1 {
		t.Errorf("ActiveClients() = %d, want 1", n)
	}
}

func TestMiddlewareLimitsConfiguredMethods(t *testing.T) {
	l, _ := limiterAt(Config{RequestsPerMinute: 1, Methods: []string{http.MethodPost}})
	h := l.Middleware(func(*http.Request) string { return "ip" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	steps := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodPost, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
	}
	for i, s := range steps {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(s.method, "/items/add", nil))
		if rr.Code != s.want {
			t.Fatalf("step %d (%s): status %d, want %d", i, s.method, rr.Code, s.want)
		}
	}
}

func TestMiddlewareRetryAfterCountsDown(t *testing.T) {
	l, clock := limiterAt(Config{RequestsPerMinute: 1})
	var rejected int
	h := l.Middleware(func(*http.Request) string { return "ip" }, func(w http.ResponseWriter, r *http.Request) {
		rejected++
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	clock.advance(45 * time.Second)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rejected != 1 {
		t.Fatalf("onLimit called %d times, want 1", rejected)
	}
	if got := rr.Header().Get("Retry-After"); got != "15" {
		t.Errorf("Retry-After = %q, want 15", got)
	}
}

func TestReserveReportsWait(t *testing.T) {
	l, clock := limiterAt(Config{RequestsPerMinute: 1})
	if ok, wait := l.Reserve("u1"); !ok || wait != 0 {
		t.Fatalf("first Reserve = %v, %v", ok, wait)
	}
	clock.advance(20 * time.Second)
	ok, wait := l.Reserve("u1")
	if ok || wait != 40*time.Second {
		t.Fatalf("second Reserve = %v, %v; want false, 40s", ok, wait)
	}
}

func TestRetryAfter(t *testing.T) {
	cases := map[time.Duration]string{
		0:                      "1",
		300 * time.Millisecond: "1",
		15 * time.Second:       "15",
		15*time.Second + 1:     "16",
		time.Minute:            "60",
	}
	for in, want := range cases {
		if got := RetryAfter(in); got != want {
			t.Errorf("RetryAfter(%v) = %q, want %q", in, got, want)
		}
	}
}

func equal(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
