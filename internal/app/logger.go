package app

import (
	"log/slog"
	"os"
	"strings"

	"github.com/flatmarket/backend/internal/config"
)

// NewLogger builds the process logger from LogConfig and installs it as
// the slog default.
//
// Format "json" is the production output; anything else falls back to the
// text handler with source locations for local runs. Level accepts debug,
// info, warn and error (case-insensitive), defaulting to info. Everything
// goes to os.Stderr so stdout stays free for command output.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: !strings.EqualFold(cfg.Format, "json"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
