package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"index", http.MethodGet, "/", "Mozilla/5.0", false},
		{"export", http.MethodPost, "/export", "Mozilla/5.0", false},
		{"dotenv", http.MethodGet, "/.env", "", true},
		{"traversal in query", http.MethodGet, "/?f=../../etc/passwd", "", true},
		{"scanner", http.MethodGet, "/", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/", "", true},
		{"long url", http.MethodGet, "/?q=" + strings.Repeat("a", maxURLLength), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.agent != "" {
				req.Header.Set("User-Agent", tt.agent)
			}
			if got := d.DetectSuspiciousRequest(req); got != tt.want {
				t.Fatalf("DetectSuspiciousRequest = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectorMiddlewareBlocks(t *testing.T) {
	d := NewDetector()
	reached := 0
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached++ }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if reached != 1 {
		t.Fatalf("handler reached %d times, want 1", reached)
	}
	if m := d.GetMetrics(); m.BlockedRequests != 1 || m.SuspiciousRequests != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"untrusted peer ignores xff", "203.0.113.7:5000", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy xff", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:5000", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy garbage xff", "192.168.1.1:5000", "nope", "", "192.168.1.1"},
		{"no port", "198.51.100.3", "", "", "198.51.100.3"},
	}
	d := NewDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(req); got != tt.want {
				t.Fatalf("ExtractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:80"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := d.ExtractClientIP(req); got != "198.51.100.1" {
		t.Fatalf("ExtractClientIP = %q", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	csp := rr.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "img-src 'self' data: blob: https:") {
		t.Fatalf("csp does not allow logos: %q", csp)
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing X-Frame-Options")
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over plain http")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}
}

func TestEmptyHeaderValuesAreSkipped(t *testing.T) {
	h := NewHeadersMiddleware(HeadersConfig{XFrameOptions: "DENY"}).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, ok := rr.Header()["Content-Security-Policy"]; ok {
		t.Fatal("empty CSP should not be sent")
	}
}

func TestStaticAssetMiddlewareAndNoStore(t *testing.T) {
	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	StaticAssetMiddleware(3600)(noop).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Fatalf("Cache-Control = %q", got)
	}

	rr = httptest.NewRecorder()
	NoStore(noop).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q", got)
	}
}
