// Package logging configures zerolog for the CLI.
//
// Output is silent by default (warnings and errors only) so command output
// stays clean; -v enables info, -vv enables debug.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger from the verbosity count.
func Setup(verbosity int) {
	switch {
	case verbosity <= 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case verbosity == 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}

// GetLogger returns a logger tagged with the originating component. The
// pointer return lets callers chain level methods directly on the call.
func GetLogger(component string) *zerolog.Logger {
	logger := log.With().Str("component", component).Logger()
	return &logger
}
