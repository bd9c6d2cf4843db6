// Package logging builds the service logger and carries a request-scoped
// logger through the context.
package logging

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type requestLoggerKey struct{}

// New builds the root logger. Components derive from it with
// With().Str("component", ...).
func New(appName, env string) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339Nano,
		NoColor:    env == "production",
	}
	return zerolog.New(out).With().
		Timestamp().
		Str("app", appName).
		Str("env", env).
		Logger()
}

// IntoContext stores the request-scoped logger.
func IntoContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey{}, logger)
}

// FromContext returns the logger AccessLog attached to the request, so lines
// carry its request_id. Calls outside a request get fallback.
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return fallback
	}
	if logger, ok := ctx.Value(requestLoggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return fallback
}
