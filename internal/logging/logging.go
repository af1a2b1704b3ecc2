// Package logging wires slog to stderr and an optional rotating file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/lumberjack.v2"

	"github.com/roach88/sipstream/internal/config"
)

// Init installs the process-wide slog default. With a file configured,
// records go to both stderr and a size-rotated file; verbose forces debug
// level regardless of config.
func Init(cfg config.LogConfig, verbose bool) {
	level := parseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch s {
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
