// Package trace tags every request with an ID and logs its outcome.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

type ctxKey struct{}

// RequestIDHeader is echoed back so clients can quote it in bug reports.
const RequestIDHeader = "X-Request-ID"

// Middleware assigns request IDs, logs one line per request and keeps
// counters for the metrics endpoint.
type Middleware struct {
	clientIP func(*http.Request) string

	requests     atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	lastMicros   atomic.Int64
}

type Metrics struct {
	TotalRequests      int64
	ClientErrors       int64
	ServerErrors       int64
	LastResponseTimeUS int64
}

// NewMiddleware builds the tracer. clientIP may be nil.
func NewMiddleware(clientIP func(*http.Request) string) *Middleware {
	return &Middleware{clientIP: clientIP}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.requests.Add(1)

		id := incomingRequestID(r)
		if id == "" {
			id = GenerateRequestID()
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		w.Header().Set(RequestIDHeader, id)

		attrs := []any{
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
		}
		if m.clientIP != nil {
			attrs = append(attrs, "client_ip", m.clientIP(r))
		}
		slog.DebugContext(ctx, "HTTP request started", append(attrs, "user_agent", r.UserAgent())...)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		m.lastMicros.Store(elapsed.Microseconds())
		slog.Log(ctx, m.levelFor(rec.status), "HTTP request completed",
			append(attrs,
				"status_code", rec.status,
				"duration_ms", elapsed.Milliseconds(),
				"bytes", rec.bytes)...)
	})
}

// levelFor counts the outcome and picks the log level for it.
func (m *Middleware) levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		m.serverErrors.Add(1)
		return slog.LevelError
	case status >= 400:
		m.clientErrors.Add(1)
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// incomingRequestID accepts an ID set by a fronting proxy when it looks sane.
func incomingRequestID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if id == "" || len(id) > 64 {
		return ""
	}
	for _, c := range id {
		if !(c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return ""
		}
	}
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.written {
		rec.status = code
		rec.written = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.written = true
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// GenerateRequestID returns a time ordered ID, so log lines sort by arrival.
func GenerateRequestID() string {
	return "req_" + strings.ToLower(ulid.Make().String())
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:      m.requests.Load(),
		ClientErrors:       m.clientErrors.Load(),
		ServerErrors:       m.serverErrors.Load(),
		LastResponseTimeUS: m.lastMicros.Load(),
	}
}
