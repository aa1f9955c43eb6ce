package log

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger so callers can pass either the wrapper or the
// embedded logger down to components.
type Logger struct {
	zerolog.Logger
}

// New builds the process logger. Unknown levels fall back to info. When pretty
// is set, output goes through the console writer instead of raw JSON.
func New(level string, pretty bool) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stdout)
	if pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return Logger{out.Level(lvl).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() Logger {
	return Logger{zerolog.Nop()}
}
