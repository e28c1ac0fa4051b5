// Package logging holds the slog conventions shared by every component:
// snake_case operation names, a "component" attribute, and the logger
// carried on the request context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type ctxKey struct{}

// NewLogger builds the process logger. JSON output is used unless text is
// requested, which is nicer during local development.
func NewLogger(w io.Writer, level slog.Level, text bool) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: level}
	if text {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// WithLogger stores logger on ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored on ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs msg at error level with the error attached.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	args := append([]any{slog.Any("error", err)}, attrs...)
	orDefault(logger).Error(msg, args...)
}

// LogOperation logs a named operation at info level.
func LogOperation(logger *slog.Logger, operation string, attrs ...any) {
	args := append([]any{slog.String("operation", operation)}, attrs...)
	orDefault(logger).Info(operation, args...)
}

// LogHTTPRequest logs one served request.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, attrs ...any) {
	args := append([]any{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	}, attrs...)

	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	} else if status >= 400 {
		level = slog.LevelWarn
	}
	orDefault(logger).Log(context.Background(), level, "http_request", args...)
}

// SafeCloseWithLogging closes c and logs a failure instead of dropping it.
func SafeCloseWithLogging(c io.Closer, logger *slog.Logger, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		LogError(logger, "failed to close "+what, err)
	}
}
