package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"orcamento/internal/cache"
	"orcamento/internal/identity"
)

const (
	sessionCookie     = "orcamento_session"
	maxSessions       = 10000
	defaultSessionTTL = 12 * time.Hour
)

type ctxKey string

const userContextKey ctxKey = "user"

// sessionStore maps opaque cookie IDs to signed-in sessions. The identity
// provider's token never leaves the server.
type sessionStore struct {
	ttl   time.Duration
	cache *cache.LRUCache[identity.Session]
	now   func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &sessionStore{
		ttl:   ttl,
		cache: cache.NewLRUCache[identity.Session](maxSessions, ttl),
		now:   time.Now,
	}
}

// create stores sess under a fresh ID and returns it.
func (st *sessionStore) create(sess identity.Session) string {
	id := uuid.NewString()
	st.cache.Set(id, sess)
	return id
}

func (st *sessionStore) get(id string) (identity.Session, bool) {
	if id == "" {
		return identity.Session{}, false
	}
	sess, ok := st.cache.Get(id)
	if !ok {
		return identity.Session{}, false
	}
	if !sess.ExpiresAt.IsZero() && st.now().After(sess.ExpiresAt) {
		st.cache.Delete(id)
		return identity.Session{}, false
	}
	return sess, true
}

func (st *sessionStore) delete(id string) {
	st.cache.Delete(id)
}

func (st *sessionStore) len() int { return st.cache.Size() }

func setSessionCookie(w http.ResponseWriter, r *http.Request, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// currentUser resolves the caller from a bearer ID token or the session
// cookie, in that order.
func (s *Server) currentUser(r *http.Request) (identity.User, bool) {
	if token := bearerToken(r); token != "" {
		u, err := s.identity.VerifyIDToken(r.Context(), token)
		if err != nil {
			return identity.User{}, false
		}
		return u, true
	}
	sess, ok := s.sessions.get(sessionID(r))
	if !ok {
		return identity.User{}, false
	}
	return sess.User, true
}

func withUser(ctx context.Context, u identity.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// userFrom returns the user put in ctx by requireUser.
func userFrom(ctx context.Context) identity.User {
	u, _ := ctx.Value(userContextKey).(identity.User)
	return u
}

// requireUser rejects anonymous requests. Full page loads are redirected to
// the sign-in page; HTMX and API calls get a 401.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(r)
		if !ok {
			switch {
			case isHTMX(r):
				NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/login").Write(w)
			case r.Method == http.MethodGet && bearerToken(r) == "":
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			default:
				http.Error(w, "Faça login para continuar.", http.StatusUnauthorized)
			}
			return
		}
		next(w, r.WithContext(withUser(r.Context(), u)))
	}
}
