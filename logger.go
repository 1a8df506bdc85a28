package prodmatch

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/prodmatch/core"
)

// Logger wraps slog.Logger with prodmatch-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithProduct adds a product id field to the logger.
func (l *Logger) WithProduct(id core.ProductID) *Logger {
	return &Logger{
		Logger: l.Logger.With("product_id", string(id)),
	}
}

// LogRegister logs a product registration.
func (l *Logger) LogRegister(ctx context.Context, id core.ProductID, features int, threshold float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "register failed",
			"product_id", string(id),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "register completed",
			"product_id", string(id),
			"features", features,
			"threshold", threshold,
		)
	}
}

// LogIdentify logs an identification scan.
func (l *Logger) LogIdentify(ctx context.Context, label string, score int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "identify failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "identify completed",
			"label", label,
			"score", score,
		)
	}
}

// LogVideo logs a video annotation job.
func (l *Logger) LogVideo(ctx context.Context, media string, windows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "video annotation failed",
			"media", media,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "video annotation completed",
			"media", media,
			"windows", windows,
		)
	}
}

// LogSnapshot logs a catalog snapshot write.
func (l *Logger) LogSnapshot(ctx context.Context, path string, products int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"path", path,
			"products", products,
		)
	}
}
