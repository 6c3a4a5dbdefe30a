// Package logger builds the zerolog root logger shared by the worker
// and admin API processes. Each package derives its own
// sub-logger from the root via With().Str("component", ...), so a
// single sink and level govern the whole process.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process root logger and installs it as zerolog's
// package-level logger. level accepts zerolog's level names ("debug",
// "info", "warn", "error"); an unrecognized value falls back to info
// rather than failing process startup over a typo. With pretty set,
// output is human-readable console lines for local development;
// otherwise JSON, one event per line.
func New(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var sink io.Writer = os.Stdout
	if pretty {
		sink = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	}

	root := zerolog.New(sink).Level(lvl).With().Timestamp().Logger()
	log.Logger = root
	return root
}
