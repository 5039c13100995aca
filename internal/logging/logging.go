// Package logging provides the diagnostic logger used across heapsnap.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/raoulx24/heapsnap/internal/config"
)

// Logger takes a message followed by key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// New builds an hclog logger writing to out (stderr when nil).
func New(cfg config.LoggingConfig, out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}

	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       "heapsnap",
		Level:      level,
		Output:     out,
		JSONFormat: strings.EqualFold(cfg.Format, "json"),
	})
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return hclog.NewNullLogger()
}
