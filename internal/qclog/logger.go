// Package qclog is the shared logger every QcNode package logs through,
// mirroring the teacher's hal.SetLogger/hal.Logger pattern: a single
// atomically-swapped *slog.Logger, silent by default, shared across
// packages without import cycles.
package qclog

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/qualcomm/qcnode/qctypes"
)

// nopHandler silently discards all log records. Enabled returns false so
// callers skip message formatting entirely, keeping disabled logging
// effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger shared by every QcNode package. By
// default QcNode produces no log output. Pass nil to restore the silent
// default.
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the logger currently shared by every QcNode package.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// Level converts a §3 LogLevel into the slog.Level it gates at.
// VERBOSE maps one step below slog.LevelDebug so it is strictly more
// chatty than DEBUG, matching the ordering in §3.
func Level(l qctypes.LogLevel) slog.Level {
	switch l {
	case qctypes.LogLevelVerbose:
		return slog.LevelDebug - 4
	case qctypes.LogLevelDebug:
		return slog.LevelDebug
	case qctypes.LogLevelInfo:
		return slog.LevelInfo
	case qctypes.LogLevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// ForNode returns a child logger tagged with the Node's configured name,
// the way §4.H's "initialize the shared logger with the configured name
// and level" is realized without each Node constructing its own handler.
func ForNode(name string) *slog.Logger {
	return Logger().With(slog.String("node", name))
}
