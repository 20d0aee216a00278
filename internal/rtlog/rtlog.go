// Package rtlog provides the reactor's ambient structured logging, built on
// logiface over a slog backend. It is kept internal and deliberately thin:
// reactor internals only ever need a handful of leveled calls with a couple
// of key/value pairs, grounded on how eventloop reports panics and shutdown
// events, generalized from ad-hoc fmt/log calls to the structured logiface
// facade the rest of the teacher's monorepo standardizes on.
package rtlog

import (
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
	ifaceslog "github.com/joeycumines/logiface-slog"
)

// Logger is the reactor's structured logger handle.
type Logger struct {
	l *logiface.Logger[*ifaceslog.Event]
}

// New creates a Logger writing JSON to stderr at informational level and
// above. Mirrors the teacher's default logging setup for long-running
// services in the monorepo (see logiface-slog's doc.go example).
func New() *Logger {
	handler := slog.NewJSONHandler(os.Stderr, nil)
	return &Logger{
		l: logiface.New[*ifaceslog.Event](
			ifaceslog.NewLogger(handler, ifaceslog.WithLevel(logiface.LevelInformational)),
		),
	}
}

// NewWithHandler wraps an arbitrary slog.Handler, used by tests that want to
// assert on emitted records.
func NewWithHandler(handler slog.Handler, level logiface.Level) *Logger {
	return &Logger{
		l: logiface.New[*ifaceslog.Event](ifaceslog.NewLogger(handler, ifaceslog.WithLevel(level))),
	}
}

func (l *Logger) fields(b *logiface.Builder[*ifaceslog.Event], kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		if key == "" {
			continue
		}
		b.Any(key, kv[i+1])
	}
}

// Debug logs msg at debug level with alternating key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) {
	b := l.l.Debug()
	l.fields(b, kv)
	b.Log(msg)
}

// Info logs msg at informational level with alternating key/value pairs.
func (l *Logger) Info(msg string, kv ...any) {
	b := l.l.Info()
	l.fields(b, kv)
	b.Log(msg)
}

// Warn logs msg at warning level with alternating key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) {
	b := l.l.Warning()
	l.fields(b, kv)
	b.Log(msg)
}

// Error logs msg at error level with alternating key/value pairs.
func (l *Logger) Error(msg string, kv ...any) {
	b := l.l.Err()
	l.fields(b, kv)
	b.Log(msg)
}
