package gologger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog logger writing JSON to stdout. LOG_LEVEL selects
// the level (default info), PRETTY=1 switches to the human console writer.
func NewLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && os.Getenv("LOG_LEVEL") != "" {
		level = parsed
	}

	var logger zerolog.Logger
	if os.Getenv("PRETTY") == "1" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().Timestamp().Logger()
}
