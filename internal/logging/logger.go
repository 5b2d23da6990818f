// Package logging provides structured logging with registration pass ID
// propagation. It wraps Go's built-in log/slog with a pass ID stored in the
// context so every diagnostic of one registration pass can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type contextKey string

const passIDKey contextKey = "pass_id"

// Logger is the package-level structured logger. Callers should prefer
// FromContext(ctx) to automatically attach the pass ID.
var Logger *slog.Logger

func init() {
	Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// Setup (re-)initialises the package logger on stderr. level is one of
// debug/info/warn/error (default info). format is "json" (default) or "text".
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// NewPassID generates a random registration pass ID.
func NewPassID() string {
	return uuid.NewString()
}

// WithPassID stores a pass ID in the context.
func WithPassID(ctx context.Context, passID string) context.Context {
	return context.WithValue(ctx, passIDKey, passID)
}

// PassIDFromContext retrieves the pass ID stored in the context.
func PassIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(passIDKey).(string)
	return v
}

// FromContext returns a *slog.Logger pre-annotated with the pass_id from ctx.
func FromContext(ctx context.Context) *slog.Logger {
	if id := PassIDFromContext(ctx); id != "" {
		return Logger.With("pass_id", id)
	}
	return Logger
}
