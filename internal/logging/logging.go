package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds a logger writing to w at the given level and installs it as the
// global logger.
func New(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger
	return logger, nil
}

// Console logs human-readable lines to stderr, for CLI commands
func Console(level string) (zerolog.Logger, error) {
	return New(level, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// File appends JSON lines to snappy.log in dir. The terminal UI owns the
// screen, so it cannot log to stderr.
func File(dir, level string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "snappy.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := New(level, f)
	if err != nil {
		_ = f.Close()
		return zerolog.Nop(), nil, err
	}
	return logger, f, nil
}
