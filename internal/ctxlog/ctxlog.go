// Package ctxlog carries a slog.Logger through context.Context.
package ctxlog

import (
	"context"
	"log/slog"
)

type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// With returns a context whose logger carries the given attributes on top of
// the logger already in ctx.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// FromContext extracts the slog.Logger from a context. A context without a
// logger yields slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
