// Package logging provides the small Logger interface the compiler and detector
// accept, and the zerolog implementation wired by the CLI and preview server.
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the minimal logging surface used by core packages
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// OrNop returns l, or a NopLogger when l is nil
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// Zerolog adapts a zerolog.Logger to Logger
type Zerolog struct {
	zerolog.Logger
}

func (z Zerolog) Debugf(format string, args ...any) { z.Debug().Msgf(format, args...) }
func (z Zerolog) Infof(format string, args ...any)  { z.Info().Msgf(format, args...) }
func (z Zerolog) Warnf(format string, args ...any)  { z.Warn().Msgf(format, args...) }
func (z Zerolog) Errorf(format string, args ...any) { z.Error().Msgf(format, args...) }

// New builds a zerolog logger. format "human" selects the console writer,
// anything else emits JSON lines. Unknown levels fall back to info.
func New(out io.Writer, level, format string) zerolog.Logger {
	if strings.EqualFold(format, "human") {
		out = zerolog.ConsoleWriter{Out: out}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
