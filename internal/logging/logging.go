// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmLog "github.com/charmbracelet/log"

	"github.com/ziadkadry99/chatbridge/internal/config"
)

// New returns a logger writing to stderr. Verbose forces debug level.
func New(cfg config.LoggingConfig, verbose bool) (*slog.Logger, error) {
	return newWithWriter(cfg, verbose, os.Stderr)
}

func newWithWriter(cfg config.LoggingConfig, verbose bool, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	switch format := strings.ToLower(strings.TrimSpace(cfg.Format)); format {
	case "", "text":
		h := charmLog.NewWithOptions(w, charmLog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: true,
			ReportCaller:    cfg.AddSource,
			Formatter:       charmLog.TextFormatter,
		})
		return slog.New(h), nil
	case "json":
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: cfg.AddSource,
		})
		return slog.New(h), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
}

func charmLevel(level slog.Level) charmLog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmLog.DebugLevel
	case level <= slog.LevelInfo:
		return charmLog.InfoLevel
	case level <= slog.LevelWarn:
		return charmLog.WarnLevel
	default:
		return charmLog.ErrorLevel
	}
}

func parseLevel(input string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", input)
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
