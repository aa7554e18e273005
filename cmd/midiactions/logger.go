package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// newLogger builds the daemon logger from the logging configuration.
// "warning" is accepted as an alias for "warn"; anything else outside the
// four slog levels is a configuration error.
func newLogger(cfg LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "error":
		level = slog.LevelError
	case "warn", "warning":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		return nil, fmt.Errorf("invalid logging.level: %s (must be error, warn, info, or debug)", cfg.Level)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
