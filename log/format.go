// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const termTimeFormat = "01-02|15:04:05.000"

const termMsgJust = 40

var levelNames = map[slog.Level]string{
	LevelTrace: "TRCE",
	LevelDebug: "DBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "EROR",
	LevelCrit:  "CRIT",
}

func levelString(lvl slog.Level) string {
	if s, ok := levelNames[lvl]; ok {
		return s
	}
	return lvl.String()
}

var levelColor = map[slog.Level]int{
	LevelTrace: 90, // gray
	LevelDebug: 34, // blue
	LevelInfo:  32, // green
	LevelWarn:  33, // yellow
	LevelError: 31, // red
	LevelCrit:  35, // magenta
}

func writeTimeTermFormat(buf *bytes.Buffer, t time.Time) {
	buf.Write(t.AppendFormat(nil, termTimeFormat))
}

// terminalHandler formats records as human-readable, optionally colored
// single lines: "LEVEL [date] message  key=val key=val".
type terminalHandler struct {
	mu       *sync.Mutex
	wr       io.Writer
	level    slog.Leveler
	useColor bool
	attrs    []slog.Attr
}

// NewTerminalHandler creates a slog.Handler that writes human-readable
// lines to wr, enabling colored output when useColor is true.
func NewTerminalHandler(wr io.Writer, useColor bool) slog.Handler {
	return NewTerminalHandlerWithLevel(wr, slog.LevelInfo, useColor)
}

// NewTerminalHandlerWithLevel is like NewTerminalHandler but with an
// explicit minimum level.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Leveler, useColor bool) slog.Handler {
	return &terminalHandler{
		mu:       new(sync.Mutex),
		wr:       wr,
		level:    lvl,
		useColor: useColor,
	}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	level := levelString(r.Level)
	if h.useColor {
		if color, ok := levelColor[r.Level]; ok {
			fmt.Fprintf(buf, "\x1b[%dm%s\x1b[0m", color, level)
		} else {
			buf.WriteString(level)
		}
	} else {
		buf.WriteString(level)
	}

	buf.WriteString(" [")
	writeTimeTermFormat(buf, r.Time)
	buf.WriteString("] ")

	msg := r.Message
	buf.WriteString(msg)
	if pad := termMsgJust - len(msg); pad > 0 {
		buf.WriteString(spaces(pad))
	}

	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, a := range attrs {
		buf.WriteByte(' ')
		writeAttr(buf, a)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.wr.Write(buf.Bytes())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &cp
}

func (h *terminalHandler) WithGroup(name string) slog.Handler {
	// groups are not supported by the terminal format; the group name is
	// dropped and later attrs are printed ungrouped.
	return h
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func writeAttr(buf *bytes.Buffer, a slog.Attr) {
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	val := a.Value.Resolve().Any()
	s := fmt.Sprintf("%v", val)
	if needsQuoting(s) {
		fmt.Fprintf(buf, "%q", s)
	} else {
		buf.WriteString(s)
	}
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}

// JSONHandler returns a handler that writes each record as a line of
// JSON, with debug-and-above records enabled.
func JSONHandler(wr io.Writer) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{Level: LevelDebug})
}

// JSONHandlerWithLevel is like JSONHandler with an explicit minimum
// level.
func JSONHandlerWithLevel(wr io.Writer, lvl slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{Level: lvl})
}

// LogfmtHandler returns a handler that writes each record in logfmt
// (key=value) form, one per line.
func LogfmtHandler(wr io.Writer) slog.Handler {
	return &logfmtHandler{wr: wr, mu: new(sync.Mutex)}
}

type logfmtHandler struct {
	mu    *sync.Mutex
	wr    io.Writer
	attrs []slog.Attr
}

func (h *logfmtHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *logfmtHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "t=%s lvl=%s msg=%q", r.Time.Format(time.RFC3339), levelString(r.Level), r.Message)

	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	for _, a := range attrs {
		buf.WriteByte(' ')
		writeAttr(buf, a)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.wr.Write(buf.Bytes())
	return err
}

func (h *logfmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &cp
}

func (h *logfmtHandler) WithGroup(string) slog.Handler { return h }
