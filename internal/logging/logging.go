// Package logging configures zerolog for the duskgrid binaries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process. Logs go to stderr so that
// reports written to stdout stay machine readable.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, os.Stderr)
}

// SetupWithWriter configures zerolog to write human-readable output to w.
// The "development" environment logs at debug level, "quiet" only warnings
// and above, everything else at info.
func SetupWithWriter(environment string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	switch strings.ToLower(environment) {
	case "development", "dev":
		level = zerolog.DebugLevel
	case "quiet":
		level = zerolog.WarnLevel
	}

	writer := zerolog.ConsoleWriter{Out: w, NoColor: w != os.Stderr && w != os.Stdout}
	logger := zerolog.New(writer).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}
