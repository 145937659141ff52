package config

import (
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
)

// SlogLevel parses the level of devlog's own diagnostics. Empty means info.
func SlogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.Newf("log_level: unknown level %q", s)
	}
}
