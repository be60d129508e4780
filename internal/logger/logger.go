// Package logger holds the process-wide zerolog instance. Output starts as
// a human-readable console writer; Configure switches level and encoding
// from the loaded config.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger instance.
var Log zerolog.Logger

func init() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	Log = consoleLogger()
}

func consoleLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Configure applies the level and output format in one step. Unknown level
// names fall back to info; any format other than "json" keeps the console
// writer.
func Configure(level, format string) {
	SetLevel(level)
	if format == "json" {
		Log = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
		return
	}
	Log = consoleLogger()
}

// SetLevel sets the global log level.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
