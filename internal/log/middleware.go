package log

import (
	"context"
	"log/slog"
	"net/http"
)

type loggerKey struct{}

// WithLogger stores l in ctx for FromContext.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored in ctx, or one over slog.Default
// tagged with the app component.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	def := slog.Default()
	return &Logger{Logger: def, component: ComponentApp, base: def.Handler()}
}

// Middleware puts logger in every request context. When requestID yields
// an id, the stored logger carries it on every record.
func Middleware(logger *Logger, requestID func(context.Context) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r.Context()); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), l)))
		})
	}
}

// StructuredLogger writes the app's well known events with a fixed field set.
type StructuredLogger struct {
	*Logger
}

func ForRequest(ctx context.Context) *StructuredLogger {
	return &StructuredLogger{Logger: FromContext(ctx)}
}

func (sl *StructuredLogger) LogQuoteExported(ctx context.Context, uid string, items int, subtotal, filename string, size int) {
	args := NewFields().
		WithComponent(ComponentExport).
		WithOperation(OpExport).
		WithUser(uid).
		WithQuote(items, subtotal).
		ToSlice()
	args = append(args, FieldFilename, filename, FieldBytes, size)
	sl.InfoContext(ctx, "Quote exported", args...)
}

// LogError records err at error level. component and operation override
// whatever fields already carries.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields = fields.WithComponent(component).WithOperation(operation).WithError(err)
	sl.ErrorContext(ctx, msg, fields.ToSlice()...)
}
