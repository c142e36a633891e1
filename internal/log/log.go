// Package log provides structured logging for the flight controller.
// It wraps slog: text output on a terminal, JSON when MINIPILOT_ENV is
// "production", level from MINIPILOT_LOG_LEVEL.
package log

import (
	"log/slog"
	"os"
	"sync"
)

var (
	root *slog.Logger
	once sync.Once
)

// Init configures the global logger. Valid levels: "debug", "info",
// "warn", "error". Safe to call more than once; only the first call wins.
func Init(level string) {
	once.Do(func() {
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
		if os.Getenv("MINIPILOT_ENV") == "production" {
			root = slog.New(slog.NewJSONHandler(os.Stdout, opts))
		} else {
			root = slog.New(slog.NewTextHandler(os.Stdout, opts))
		}
		slog.SetDefault(root)
	})
}

// L returns the global logger, initializing it from MINIPILOT_LOG_LEVEL if
// Init was never called.
func L() *slog.Logger {
	if root == nil {
		Init(os.Getenv("MINIPILOT_LOG_LEVEL"))
	}
	return root
}

// Component returns a logger scoped to one subsystem, e.g. "engine" or
// "feed.tracking".
func Component(name string) *slog.Logger {
	return L().With("component", name)
}
