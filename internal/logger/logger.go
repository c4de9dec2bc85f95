// Package logger builds the zerolog loggers used by the binaries.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Options selects the output format and minimum level.
type Options struct {
	Level  string    // trace, debug, info, warn, error; empty means info
	Format string    // "json" or "console"; anything else is console
	Out    io.Writer // defaults to os.Stderr
}

// New returns a logger writing to opts.Out with a timestamp on every line.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	zerolog.TimeFieldFormat = timeFormat
	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}
	return zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, falling back to info.
func ParseLevel(s string) zerolog.Level {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
