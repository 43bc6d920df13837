package config

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// NewLogger returns a logger writing JSON to w at the given level.
// An empty level means info.
func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	return newLogger(level, "json", w)
}

// Logger returns the logger src describes, writing to w.
func (s Source) Logger(w io.Writer) (zerolog.Logger, error) {
	return newLogger(s.LogLevel, s.LogFormat, w)
}

func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("config: invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
