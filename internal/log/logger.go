// Package log configures the process-wide slog logger and carries a
// request-scoped logger through HTTP handlers.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger that remembers which component it logs for.
type Logger struct {
	*slog.Logger
	component string
	// base is the handler before any attribute was attached.
	base slog.Handler
}

type Config struct {
	Level     slog.Level
	Component string
	// Format is "text" (default) or "json". Ignored when Handler is set.
	Format string
	Output io.Writer
	// Handler overrides Format and Output; tests use it to capture records.
	Handler slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp, Format: "text"}
}

func New(cfg Config) *Logger {
	h := cfg.Handler
	if h == nil {
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: cfg.Level}
		if strings.EqualFold(cfg.Format, "json") {
			h = slog.NewJSONHandler(out, opts)
		} else {
			h = slog.NewTextHandler(out, opts)
		}
	}
	if cfg.Component == "" {
		cfg.Component = ComponentApp
	}
	return newLogger(h, cfg.Component)
}

func newLogger(base slog.Handler, component string) *Logger {
	return &Logger{Logger: slog.New(base).With(FieldComponent, component), component: component, base: base}
}

// ParseLevel maps debug, warn and error to their slog levels; anything else is Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component, base: l.base}
}

// WithComponent starts a fresh attribute set on the same handler, so the
// previous component and any request fields are dropped.
func (l *Logger) WithComponent(component string) *Logger {
	base := l.base
	if base == nil {
		base = l.Handler()
	}
	return newLogger(base, component)
}

func (l *Logger) Component() string { return l.component }

// SetDefault makes logger the target of the package level slog functions.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
