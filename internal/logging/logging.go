// Package logging builds the zerolog logger shared by the CLI and scraper.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config contains logger configuration options.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the logging defaults: warnings and above, console format.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "console",
	}
}

// New creates a logger writing to out.
func New(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	if strings.EqualFold(cfg.Format, "console") || strings.EqualFold(cfg.Format, "pretty") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel converts a level name to zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
