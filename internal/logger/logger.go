// Package logger configures the process-wide zerolog logger.  Handlers and
// middleware receive the logger explicitly; nothing logs through a hidden
// global besides zerolog's own default, which New also replaces.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the service logger.  Dev environments get the human console
// writer; everything else emits JSON lines.  LOG_LEVEL overrides the
// default info level.
func New(env string) zerolog.Logger {
	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}

	l := zerolog.New(os.Stdout).With().Timestamp().Str("service", "animal-care-api").Logger()
	if env == "dev" || env == "local" {
		l = l.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	l = l.Level(level)
	log.Logger = l
	return l
}
