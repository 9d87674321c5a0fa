// Package logging provides structured logging for laprelay using zerolog.
// Console output is used when stderr is a terminal, JSON everywhere else, so
// the same binary is readable on a laptop and parseable in a container.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("driver", "Smith").Msg("Tracking started")
//
//	ctx := logging.WithClient(context.Background(), clientID)
//	logging.FromContext(ctx).Debug().Msg("Command received")
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger is used until the CLI installs its configured logger.
var defaultLogger = NewLoggerFromConfig(EnvConfig())

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Component returns a child of the default logger tagged with a component
// name. Packages use it when their caller supplied no logger.
func Component(name string) *zerolog.Logger {
	logger := defaultLogger.With().Str("component", name).Logger()
	return &logger
}

// isatty reports whether stderr is a terminal.
func isatty() bool {
	fileInfo, _ := os.Stderr.Stat()
	return fileInfo != nil && fileInfo.Mode()&os.ModeCharDevice != 0
}
