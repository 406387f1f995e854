package testutil

import (
	"log/slog"
)

// DiscardLogger returns a slog.Logger that discards all output. Use this in
// tests to reduce noise; log.Logger is a type alias for *slog.Logger, so the
// result works anywhere a component takes a logger.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
