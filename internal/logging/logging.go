// Package logging wraps log/slog behind the small set of severity call
// sites the engine uses, the way migadu-sora/logger/logger.go wraps the
// standard logger behind named severity functions — except fields are
// attached structurally (slog.Attr) rather than interpolated into a format
// string, so a credential can never end up in a log line by accident (no
// call site in this package accepts a free-form "extra text" parameter that
// a password could be smuggled through).
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is a thin wrapper around *slog.Logger.
type Logger struct {
	inner *slog.Logger
}

// New builds a Logger writing JSON lines at level and above to w.
func New(level slog.Level, w io.Writer) *Logger {
	return &Logger{inner: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))}
}

// Default returns a Logger writing to os.Stderr at info level, for use
// where no explicit logger was configured (e.g. in tests).
func Default() *Logger {
	return New(slog.LevelInfo, os.Stderr)
}

// With returns a Logger that attaches the given key/value pairs to every
// subsequent call. Used to bind session_id/remote_addr once per connection.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.inner.DebugContext(ctx, msg, args...)
}
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.inner.InfoContext(ctx, msg, args...)
}
