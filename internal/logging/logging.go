package logging

import (
	"io"
	"os"
	"time"

	"github.com/duynguyendang/askdb/internal/config"
	"github.com/rs/zerolog"
)

// New builds the process logger. Console output unless cfg.JSON is set.
// A nil writer means stderr so that REPL output on stdout stays clean.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if !cfg.JSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "askdb").Logger()
}
