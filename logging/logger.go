// Package logging provides the minimal structured logging sink consumed by
// the channel, typed channel, and contract layers.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is the interface consumed throughout the library for diagnostics.
// Applications may supply any implementation; a slog-backed default and a
// no-op default are provided.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// WithContext returns a logger that may pull request-scoped values out
	// of ctx (the default implementation does not, but callers may wrap it).
	WithContext(ctx context.Context) Logger

	// WithField returns a logger with an additional structured field
	// attached to every subsequent record.
	WithField(key string, value any) Logger
}

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewSlog wraps an existing *slog.Logger.
func NewSlog(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) WithContext(_ context.Context) Logger { return s }

func (s *slogLogger) WithField(key string, value any) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}

// NoopLogger implements Logger but performs no action. It is the fallback
// used whenever a component is constructed without a logger.
type NoopLogger struct{}

func (NoopLogger) Debug(string, ...any)             {}
func (NoopLogger) Info(string, ...any)              {}
func (NoopLogger) Warn(string, ...any)              {}
func (NoopLogger) Error(string, ...any)             {}
func (l NoopLogger) WithContext(context.Context) Logger { return l }
func (l NoopLogger) WithField(string, any) Logger       { return l }

var noop Logger = NoopLogger{}

// GetNoopLogger returns the shared no-op logger instance.
func GetNoopLogger() Logger { return noop }

var defaultLogger = GetNoopLogger()

// SetDefaultLogger installs the process-wide default logger used by
// GetLogger. Passing nil is a no-op.
func SetDefaultLogger(logger Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// SetupLogger configures and installs a slog-backed JSON logger at the
// given level, writing to w (os.Stderr if w is nil). It mirrors the
// teacher's SetupDefaultLogger entry point.
func SetupLogger(level string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	SetDefaultLogger(NewSlog(slog.New(handler)))
}

// GetLogger returns a logger tagged with a "component" field, the way
// packages throughout this library obtain their own logger.
func GetLogger(name string) Logger {
	return defaultLogger.WithField("component", name)
}
