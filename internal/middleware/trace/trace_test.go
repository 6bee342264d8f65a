package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(seen, "req_") || len(seen) != len("req_")+26 {
		t.Fatalf("unexpected request id %q", seen)
	}
	if got := rr.Header().Get(RequestIDHeader); got != seen {
		t.Fatalf("header id %q, context id %q", got, seen)
	}
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"plain", "abc-123_X", true},
		{"spaces", "abc 123", false},
		{"html", "<script>", false},
		{"too long", strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.incoming)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if (seen == tt.incoming) != tt.keep {
				t.Fatalf("incoming %q, got %q, keep=%v", tt.incoming, seen, tt.keep)
			}
		})
	}
}

func TestMiddlewareMetrics(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" })
	var status int
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("ok"))
	}))

	for _, status = range []int{http.StatusOK, http.StatusUnprocessableEntity, http.StatusInternalServerError} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 3 || got.ClientErrors != 1 || got.ServerErrors != 1 {
		t.Errorf("metrics = %+v, want 3 requests with one 4xx and one 5xx", got)
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}

func TestGeneratedIDsSortByTime(t *testing.T) {
	a := GenerateRequestID()
	time.Sleep(2 * time.Millisecond)
	b := GenerateRequestID()
	if a >= b {
		t.Errorf("%q should sort before %q", a, b)
	}
}
