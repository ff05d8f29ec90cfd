// Package logging configures structured logging for log/slog.
//
// Usage:
//
//	cfg, _ := config.Load()
//	logging.SetupWith(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
//
// Levels are debug, info, warn and error (default: info). Formats are text
// (colored, via tint) and json (default: text).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// SetupWith configures logging at the given level and format.
func SetupWith(level slog.Level, format string) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, level, format)))
}

// NewHandler returns a JSON handler for format "json" and a colored tint
// handler otherwise.
func NewHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	})
}

// ParseLevel maps debug, warn and error to their slog levels; anything else is INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
