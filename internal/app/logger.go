package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger emitting in the requested format: "json"
// for deployments, "pretty" (the configured default) for local development.
// Unknown formats fall back to pretty so a typo never silences logs.
func NewLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "pretty":
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
}
