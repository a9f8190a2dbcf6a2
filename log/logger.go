// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is a thin wrapper around log/slog providing the leveled,
// human-friendly terminal output the rest of the engine logs through
// (dagmap trash-collector failures, muxdb flush-on-close failures).
package log

import (
	"context"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Level constants, compatible with slog.Level but extending it with a
// Trace level below Debug, following the convention used throughout the
// go-ethereum/vechain-thor stack.
const (
	LevelTrace slog.Level = -8
	LevelDebug slog.Level = slog.LevelDebug
	LevelInfo  slog.Level = slog.LevelInfo
	LevelWarn  slog.Level = slog.LevelWarn
	LevelError slog.Level = slog.LevelError
	LevelCrit  slog.Level = 12
)

// Logger writes leveled, structured log records.
type Logger interface {
	// New returns a new Logger with ctx appended as its own attributes.
	New(ctx ...any) Logger
	// With is an alias for New, matching slog's naming.
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)

	// Log emits a record at the given level.
	Log(level slog.Level, msg string, ctx ...any)

	// Handler returns the underlying slog.Handler.
	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

// NewLogger wraps an slog.Handler as a Logger.
func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

func (l *logger) With(ctx ...any) Logger {
	return l.New(ctx...)
}

func (l *logger) Log(level slog.Level, msg string, ctx ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.Log(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.Log(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.Log(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.Log(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.Log(LevelError, msg, ctx...) }
func (l *logger) Crit(msg string, ctx ...any)  { l.Log(LevelCrit, msg, ctx...) }

func (l *logger) Handler() slog.Handler { return l.inner.Handler() }

var root = NewLogger(NewTerminalHandler(os.Stderr, isatty.IsTerminal(os.Stderr.Fd())))

// SetDefault sets the package-level logger used by the free functions
// below (Trace, Debug, Info, ...).
func SetDefault(l Logger) {
	root = l
}

// Root returns the current package-level default logger.
func Root() Logger { return root }

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }

// New creates a new Logger rooted at the default logger.
func New(ctx ...any) Logger { return root.New(ctx...) }
