// Package logx is a thin zerolog wrapper shared by every package.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"auramythos/config"
)

type Options struct {
	Environment config.Environment
	// Writer overrides the output; nil means stderr.
	Writer io.Writer
}

// Init configures the global logger. Production logs JSON at info level,
// everything else gets a console writer at debug level.
func Init(opts Options) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if opts.Environment.IsProduction() {
		log.Logger = zerolog.New(w).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).
		With().Timestamp().Caller().Logger().
		Level(zerolog.DebugLevel)
}

// Disable silences all output, used by tests.
func Disable() {
	log.Logger = zerolog.Nop()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
