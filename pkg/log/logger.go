// Package log provides the structured logging facade for the goimc toolkit,
// backed by rs/zerolog. Solvers log per-iteration progress through it and the
// errors package routes warnings into it once Setup has run.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/imc-lab/goimc/pkg/errors"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(io.Discard)
)

// Setup configures the global logger to write JSON lines to w at the given
// level ("debug", "info", "warn", "error"; anything else disables output).
// It also installs the zerolog warning sink so that errors.Warn produces
// structured warn-level events.
func Setup(w io.Writer, level string) {
	if w == nil {
		w = os.Stderr
	}

	mu.Lock()
	logger = zerolog.New(w).Level(toLevel(level)).With().Timestamp().Logger()
	mu.Unlock()

	errors.SetZerologWarnFunc(func(warning error) {
		l := Logger()
		ev := l.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev.EmbedObject(obj).Msg("warning")
			return
		}
		ev.Err(warning).Msg("warning")
	})
}

// Logger returns the current global logger. Callers derive contextual
// loggers from it with With():
//
//	log.Logger().With().Str("loss", loss.Name()).Logger()
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func toLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}
