// Package logger configures the global zerolog logger
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the global logger. dev and test environments get a console
// writer at debug level; everything else logs JSON at info. level overrides
// the environment default when it parses.
func Init(environment, level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	logLevel := zerolog.InfoLevel
	switch strings.ToLower(environment) {
	case "dev", "test":
		logLevel = zerolog.DebugLevel
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Caller().Logger()
	default:
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			logLevel = parsed
		} else {
			log.Warn().Str("level", level).Msg("unknown LOG_LEVEL, keeping environment default")
		}
	}

	zerolog.SetGlobalLevel(logLevel)
	log.Info().Str("environment", environment).Str("level", logLevel.String()).Msg("logger initialized")
}

// For returns a child logger tagged with a component name
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
