// Package logging defines the structured-logging interface shared by the
// store, upload queue, sync engine and connectivity monitor. The single
// provided implementation wraps slog; the CLI installs a tint handler.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are key-value pairs, e.g.:
//
//	log.Info(ctx, "photo uploaded", "photo", photoID, "audit", auditID)
type Logger interface {
	// Info logs routine progress (uploads, sync batches).
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions (retries, skipped photos).
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
