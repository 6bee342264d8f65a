package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orcamento/internal/identity"
)

func TestSessionStore(t *testing.T) {
	st := newSessionStore(time.Hour)
	now := time.Date(2024, 7, 9, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	sess := identity.Session{
		User:      identity.User{UID: "u1", Email: "ana@example.com"},
		ExpiresAt: now.Add(30 * time.Minute),
	}
	id := st.create(sess)
	if id == "" {
		t.Fatal("empty session id")
	}
	if other := st.create(sess); other == id {
		t.Fatal("session ids must be unique")
	}

	got, ok := st.get(id)
	if !ok || got.User.UID != "u1" {
		t.Fatalf("get() = %+v, %v", got, ok)
	}

	// past the identity token expiry the session is gone
	now = now.Add(31 * time.Minute)
	if _, ok := st.get(id); ok {
		t.Error("expired session still returned")
	}

	if _, ok := st.get(""); ok {
		t.Error("empty id must not resolve")
	}
}

func TestSessionStoreDelete(t *testing.T) {
	st := newSessionStore(0)
	if st.ttl != defaultSessionTTL {
		t.Errorf("ttl = %v, want default", st.ttl)
	}
	id := st.create(identity.Session{User: identity.User{UID: "u1"}})
	st.delete(id)
	if _, ok := st.get(id); ok {
		t.Error("deleted session still returned")
	}
	if n := st.len(); n != 0 {
		t.Errorf("len = %d, want 0", n)
	}
}

func TestBearerTokenParsing(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer   xyz ", "xyz"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("bearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionCookieSecureBehindProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	setSessionCookie(rr, req, "abc", time.Hour)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d", len(cookies))
	}
	c := cookies[0]
	if !c.Secure || !c.HttpOnly || c.MaxAge != 3600 || c.Name != sessionCookie {
		t.Errorf("cookie = %+v", c)
	}

	rr = httptest.NewRecorder()
	clearSessionCookie(rr, req)
	if c := rr.Result().Cookies()[0]; c.MaxAge >= 0 {
		t.Errorf("clear cookie MaxAge = %d", c.MaxAge)
	}
}

func TestUserFromEmptyContext(t *testing.T) {
	if u := userFrom(context.Background()); u.UID != "" {
		t.Errorf("userFrom() = %+v", u)
	}
	ctx := withUser(context.Background(), identity.User{UID: "u9"})
	if u := userFrom(ctx); u.UID != "u9" {
		t.Errorf("userFrom() = %+v", u)
	}
}
