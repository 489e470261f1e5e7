package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/gridpulse-systems/gridpulse-relay/internal/middleware"
)

// Logger is a slog.Logger that enriches records with request-scoped
// attributes pulled from the context.
type Logger struct {
	*slog.Logger
}

// New builds a Logger writing to stdout. format selects the handler,
// "text" or "json"; anything unrecognized falls back to JSON.
func New(level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelError,
	}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Default wraps slog's process-wide default logger.
func Default() *Logger {
	return &Logger{Logger: slog.Default()}
}

// WithContext returns the underlying slog.Logger with the context's
// request ID attached, when one is present.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	if id := middleware.GetRequestID(ctx); id != "" {
		return l.Logger.With(slog.String("request_id", id))
	}
	return l.Logger
}

// DebugContext logs at debug with the context's request ID attached.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).DebugContext(ctx, msg, args...)
}

// InfoContext logs at info with the context's request ID attached.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).InfoContext(ctx, msg, args...)
}

// WarnContext logs at warn with the context's request ID attached.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).WarnContext(ctx, msg, args...)
}

// ErrorContext logs at error with the context's request ID attached.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).ErrorContext(ctx, msg, args...)
}

// With returns a Logger carrying the extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ParseLevel maps a config string ("debug", "info", "warn", "error")
// to its slog.Level. Unknown strings default to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault installs l as the default for both slog and the log
// package.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
