// Package logger provides slog-backed logging for the editor core.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds the logger settings loaded from the [logger] config section.
type Config struct {
	// LogLevel is the minimum level to log ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`

	// LogFilePath is the output log file. Empty or "-" means stderr.
	LogFilePath string `toml:"log_file"`
}

// NewConfig returns a Config with default values.
func NewConfig() Config {
	return Config{LogLevel: "info"}
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup opens the configured output and initializes the package logger.
// The returned closer is non-nil when a log file was opened.
func Setup(cfg Config) (io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer

	if cfg.LogFilePath != "" && cfg.LogFilePath != "-" {
		f, err := os.OpenFile(cfg.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file '%s': %w", cfg.LogFilePath, err)
		}
		out = f
		closer = f
	}

	Init(ParseLevel(cfg.LogLevel), out)
	return closer, nil
}
