package logger

import (
	"log/slog"
	"os"
)

// New builds the process logger. dev gets human-readable debug output,
// everything else JSON at info level.
func New(env string) *slog.Logger {
	var h slog.Handler
	if env == "dev" {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(h).With("service", "pressops")
}
