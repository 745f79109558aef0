// Package logging builds the zerolog logger used across Quicky.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name; empty means "warn".
	Level string

	// Output receives log lines; nil means os.Stderr.
	Output io.Writer

	// Pretty selects the human-readable console writer.
	Pretty bool

	// TimeFormat is used by the console writer; empty means time.Kitchen.
	TimeFormat string
}

// ParseLevel parses a level name case-insensitively.
func ParseLevel(name string) (zerolog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level: %w", err)
	}
	return level, nil
}

// New creates a logger according to cfg.
func New(cfg Config) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		format := cfg.TimeFormat
		if format == "" {
			format = time.Kitchen
		}
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: format}
	}

	return zerolog.New(out).With().Timestamp().Str("app", "quicky").Logger().Level(level), nil
}
