package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func bufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestNewAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf, ComponentWorker)
	l.Info("started")
	if !strings.Contains(buf.String(), "component=worker") {
		t.Fatalf("missing component in %q", buf.String())
	}
	if l.Component() != ComponentWorker {
		t.Fatalf("Component() = %q", l.Component())
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf, ComponentApp).WithComponent(ComponentHTTP)
	l.Info("request")
	out := buf.String()
	if strings.Contains(out, "component=app") || !strings.Contains(out, "component=http") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestWithComponentDropsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf, ComponentApp).With(FieldRequestID, "r1").WithComponent(ComponentBudget)
	l.Info("saved")
	out := buf.String()
	if n := strings.Count(out, "component="); n != 1 {
		t.Fatalf("component written %d times in %q", n, out)
	}
	if strings.Contains(out, "r1") || l.Component() != ComponentBudget {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestMiddlewareCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, ComponentHTTP)

	type key struct{}
	requestID := func(ctx context.Context) string {
		id, _ := ctx.Value(key{}).(string)
		return id
	}
	handler := Middleware(logger, requestID)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ForRequest(r.Context()).LogError(r.Context(), "Export failed", errors.New("boom"), ComponentExport, OpExport, NewFields().WithUser("u1"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	req = req.WithContext(context.WithValue(req.Context(), key{}, "req_1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"request_id=req_1", "error=boom", "operation=export", "uid=u1"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != ComponentApp {
		t.Fatalf("Component() = %q", l.Component())
	}
}

func TestMiddlewareWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, ComponentHTTP)
	handler := Middleware(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) != logger {
			t.Error("request context should carry the configured logger")
		}
		ForRequest(r.Context()).LogQuoteExported(r.Context(), "u1", 2, "10.00", "orcamento.pdf", 512)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/export", nil))

	out := buf.String()
	if strings.Contains(out, FieldRequestID+"=") {
		t.Errorf("unexpected request id in %q", out)
	}
	for _, want := range []string{"filename=orcamento.pdf", "bytes=512", "component=export"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentWorker, Format: "JSON", Output: &buf, Level: slog.LevelInfo})
	l.Debug("hidden")
	l.Info("sync done", FieldUID, "u1")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %s", out)
	}
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"component":"worker"`) || !strings.Contains(out, `"uid":"u1"`) {
		t.Errorf("unexpected JSON record %s", out)
	}
}
