// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.Setup("")                 // level from TALLY_LOG_LEVEL env
//	logging.Setup("debug")            // explicit level override
//
// Recognized levels: debug, info, warn, error (default: info).
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures colored logging. An empty level falls back to the
// TALLY_LOG_LEVEL environment variable, then to INFO.
func Setup(level string) {
	if level == "" {
		level = os.Getenv("TALLY_LOG_LEVEL")
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      parseLevel(level),
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}),
	))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
