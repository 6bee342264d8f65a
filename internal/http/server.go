package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"orcamento/internal/cache"
	"orcamento/internal/identity"
	appLog "orcamento/internal/log"
	"orcamento/internal/middleware/ratelimit"
	"orcamento/internal/middleware/security"
	"orcamento/internal/middleware/trace"
	"orcamento/internal/profiles"
	"orcamento/internal/services"
	appweb "orcamento/web"
)

const (
	defaultMaxUpload = 10 << 20
	// Extraction calls a paid model, so each user gets a tighter budget than
	// the global POST limit.
	extractionsPerMinute = 10
	warmProfileTimeout   = 5 * time.Second
)

// Config holds the server settings taken from the app configuration.
type Config struct {
	Addr              string
	MaxUploadBytes    int64
	SessionTTL        time.Duration
	RequestsPerMinute int
}

// Deps are the collaborators behind the handlers. Notifier and Ping may be nil.
type Deps struct {
	Budget   *services.BudgetService
	Profiles *profiles.Service
	Identity identity.Provider
	Notifier *identity.Notifier
	Ping     func(ctx context.Context) error
	Logger   *appLog.Logger
}

type Server struct {
	http.Server
	templates *template.Template

	budget   *services.BudgetService
	profiles *profiles.Service
	identity identity.Provider
	notifier *identity.Notifier
	ping     func(ctx context.Context) error

	sessions       *sessionStore
	maxUpload      int64
	logger         *appLog.Logger
	traceMW        *trace.Middleware
	detector       *security.Detector
	limiter        *ratelimit.Limiter
	extractLimiter *ratelimit.Limiter
	started        time.Time

	unsubscribe  func()
	shutdownOnce sync.Once
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run server. It subscribes to sign-in changes; Shutdown
// unsubscribes.
func NewServer(cfg Config, deps Deps) *Server {
	mux := http.NewServeMux()

	logger := deps.Logger
	if logger == nil {
		logger = &appLog.Logger{Logger: slog.Default()}
	}
	logger = logger.WithComponent(appLog.ComponentHTTP)

	notifier := deps.Notifier
	if notifier == nil {
		notifier = identity.NewNotifier()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}

	detector := security.NewDetector()
	limitCfg := ratelimit.DefaultConfig()
	if cfg.RequestsPerMinute > 0 {
		limitCfg.RequestsPerMinute = cfg.RequestsPerMinute
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			// extraction waits on the model
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  2 * time.Minute,
		},
		budget:         deps.Budget,
		profiles:       deps.Profiles,
		identity:       deps.Identity,
		notifier:       notifier,
		ping:           deps.Ping,
		sessions:       newSessionStore(cfg.SessionTTL),
		maxUpload:      maxUpload,
		logger:         logger,
		traceMW:        trace.NewMiddleware(detector.ExtractClientIP),
		detector:       detector,
		limiter:        ratelimit.NewLimiter(limitCfg),
		extractLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: extractionsPerMinute}),
		started:        time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.New("orcamento").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.HandleFunc("/", s.requireUser(s.handleIndex))
	mux.HandleFunc("/ui/quote", s.requireUser(s.handleQuotePartial))
	mux.HandleFunc("/items", s.requireUser(s.handleAddItem))
	mux.HandleFunc("/items/update", s.requireUser(s.handleUpdateItem))
	mux.HandleFunc("/items/remove", s.requireUser(s.handleRemoveItem))
	mux.HandleFunc("/items/clear", s.requireUser(s.handleClearItems))
	mux.HandleFunc("/extract", s.requireUser(s.handleExtract))
	mux.HandleFunc("/profile", s.requireUser(s.handleProfile))
	mux.HandleFunc("/export", s.requireUser(s.handleExport))
	mux.HandleFunc("/export/sheets", s.requireUser(s.handleArchive))

	var h http.Handler = mux
	h = appLog.Middleware(logger, trace.GetRequestID)(h)
	h = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = s.traceMW.Middleware(h)
	s.Handler = h

	s.unsubscribe = notifier.Subscribe(s.onUserChange)
	return s
}

var templateFuncs = template.FuncMap{"logoSrc": logoSrc}

// logoSrc marks a logo reference safe for an img src. Only inline images and
// http(s) links pass; anything else renders no image.
func logoSrc(ref string) template.URL {
	switch {
	case strings.HasPrefix(ref, "data:image/"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return template.URL(ref)
	}
	return ""
}

// onUserChange warms the profile cache on sign-in and drops the user's
// quote and cached profile on sign-out.
func (s *Server) onUserChange(ev identity.Event) {
	uid := ev.User.UID
	switch ev.Kind {
	case identity.SignedIn:
		ctx, cancel := context.WithTimeout(context.Background(), warmProfileTimeout)
		defer cancel()
		s.profiles.Load(ctx, uid)
		s.logger.Info("User signed in", appLog.FieldUID, uid)
	case identity.SignedOut:
		s.budget.Forget(uid)
		s.profiles.Forget(uid)
		s.logger.Info("User signed out", appLog.FieldUID, uid)
	}
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		"client_ip", s.detector.ExtractClientIP(r),
		"method", r.Method,
		"path", r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.").Write(w)
}

// Caches returns the session cache and the limiters so they can be swept
// periodically.
func (s *Server) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.sessions.cache, s.limiter, s.extractLimiter}
}

// Notifier is the channel sign-in changes are published on.
func (s *Server) Notifier() *identity.Notifier { return s.notifier }

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// executeTemplate renders name into memory so a failing template never
// leaves a half written page behind.
func (s *Server) executeTemplate(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesUnavailable
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := s.executeTemplate(name, data)
	if err != nil {
		appLog.ForRequest(r.Context()).LogError(r.Context(), "Template render failed", err,
			appLog.ComponentHTTP, appLog.OpRender, appLog.NewFields().WithErrorType(name))
		InternalServerError("Erro ao montar a página.").Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(string(body)).Write(w)
}
