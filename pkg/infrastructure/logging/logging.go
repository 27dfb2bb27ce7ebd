// Package logging builds the zerolog logger shared by every service.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config describes how to build a logger
type Config struct {
	Level   string
	Format  string // json or console
	Service string
	Version string
	Output  io.Writer
}

// New creates a logger tagged with service and version. Unknown levels fall
// back to info.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	if cfg.Version != "" {
		ctx = ctx.Str("version", cfg.Version)
	}
	return ctx.Logger()
}
