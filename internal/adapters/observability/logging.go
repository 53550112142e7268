package observability

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger writing to stderr.
// APP_ENV=dev (or development) uses a human-friendly console writer; level is
// taken from level ("debug", "warn", ...) and defaults to info.
func NewLogger(env, level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			lvl = parsed
		}
	}

	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if env == "dev" || env == "development" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return l.Level(lvl)
}
