package slogx

import (
	"context"
	"log/slog"
)

// loggerKey is unexported so only this package can attach loggers.
type loggerKey struct{}

// WithContext returns a child context carrying logger. Later layers pull it
// back out with FromContext instead of threading a logger argument through
// every call.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached by WithContext. Contexts without
// one fall back to the process default, so callers never nil-check.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
