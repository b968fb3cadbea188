// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns a logger with the
// batch ID already attached, so every log line emitted while a unit of work
// is being reconciled is automatically correlated to its import run:
//
//	log := logger.WithCtx(ctx)
//	log.Info("product reconciled", "sku", "ABC-1")
//	// → time=... level=INFO msg="product reconciled" batch_id=a1b2c3d4 sku=ABC-1
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/vastra/config"
)

var L *slog.Logger

// mongoH is set when MONGO_LOG_URI is configured; Close flushes it.
var mongoH *MongoHandler

func init() {
	var level slog.Level
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: level}

	switch config.AppEnv() {
	case "production", "prod":
		level = slog.LevelInfo
		opts.Level = level
		handler = slog.NewJSONHandler(os.Stdout, opts) // structured JSON for log aggregators
	default:
		level = slog.LevelDebug
		opts.Level = level
		handler = slog.NewTextHandler(os.Stdout, opts) // human-readable for dev
	}

	if uri := config.MongoLogURI(); uri != "" {
		mh, err := NewMongoHandler(uri, config.MongoLogDatabase(), config.MongoLogCollection())
		if err == nil {
			mongoH = mh
			handler = NewMultiHandler(handler, mh)
		}
		// A down Mongo never blocks boot; stdout logging carries on alone.
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// Close flushes the async Mongo handler, if configured. Call on shutdown.
func Close() {
	if mongoH != nil {
		mongoH.Close()
	}
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

// ctxKey is the unexported key used to store a per-batch *slog.Logger.
type ctxKey struct{}

// WithCtx returns the *slog.Logger stored in ctx by InjectLogger, or the
// base logger when none is present. The importer injects a logger tagged
// with batch_id at the start of every run, so services deep in the
// reconciliation path pick up the correlation attribute for free.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with batch_id) into ctx.
// Called by the importer at batch start — not usually needed elsewhere.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
