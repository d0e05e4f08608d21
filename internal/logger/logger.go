package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// Init sets the global level from a config string ("debug", "info", ...).
// Unknown values fall back to info.
func Init(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	mu.Lock()
	log = log.Level(lvl)
	mu.Unlock()
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debugf(format string, args ...any) {
	l := current()
	l.Debug().Msgf(format, args...)
}

func Infof(format string, args ...any) {
	l := current()
	l.Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	l := current()
	l.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...any) {
	l := current()
	l.Error().Msgf(format, args...)
}
