package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Debug starts a debug-level log event.
func Debug() *zerolog.Event { return log.Debug() }

// Info starts an info-level log event.
func Info() *zerolog.Event { return log.Info() }

// Warn starts a warn-level log event.
func Warn() *zerolog.Event { return log.Warn() }

// Error starts an error-level log event.
func Error() *zerolog.Event { return log.Error() }

// Fatal starts a fatal-level log event. The process exits after Msg.
func Fatal() *zerolog.Event { return log.Fatal() }
