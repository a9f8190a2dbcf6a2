// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTerminalHandlerWithAttrs(t *testing.T) {
	out := new(bytes.Buffer)
	var level slog.LevelVar
	level.Set(LevelTrace)
	handler := NewTerminalHandlerWithLevel(out, &level, false).WithAttrs([]slog.Attr{slog.String("baz", "bat")})
	logger := NewLogger(handler)
	logger.Trace("a message", "foo", "bar")

	have := out.String()
	assert.True(t, strings.HasPrefix(have, "TRCE ["))
	assert.Contains(t, have, "a message")
	assert.Contains(t, have, "baz=bat")
	assert.Contains(t, have, "foo=bar")
}

func TestTerminalHandlerRespectsLevel(t *testing.T) {
	out := new(bytes.Buffer)
	var level slog.LevelVar
	level.Set(LevelInfo)
	logger := NewLogger(NewTerminalHandlerWithLevel(out, &level, false))

	logger.Debug("should be filtered")
	assert.Empty(t, out.String())

	logger.Info("should appear")
	assert.Contains(t, out.String(), "should appear")
}

func TestJSONHandler(t *testing.T) {
	out := new(bytes.Buffer)
	handler := JSONHandler(out)
	logger := slog.New(handler)
	logger.Debug("hi there")
	assert.NotEmpty(t, out.String())

	out.Reset()

	var level slog.LevelVar
	level.Set(LevelInfo)

	handler = JSONHandlerWithLevel(out, &level)
	logger = slog.New(handler)
	logger.Debug("hi there")
	assert.Empty(t, out.String())
}

func TestLogfmtHandler(t *testing.T) {
	out := new(bytes.Buffer)
	logger := NewLogger(LogfmtHandler(out))
	logger.Info("this is a message", "foo", 123, "bar", "a string")

	have := out.String()
	assert.Contains(t, have, `msg="this is a message"`)
	assert.Contains(t, have, "foo=123")
	assert.Contains(t, have, `bar="a string"`)
}

func TestTermTimeFormat(t *testing.T) {
	now := time.Now()
	want := now.AppendFormat(nil, termTimeFormat)
	b := new(bytes.Buffer)
	writeTimeTermFormat(b, now)
	assert.Equal(t, want, b.Bytes())
}

func TestSetDefaultAndPackageLevelFuncs(t *testing.T) {
	out := new(bytes.Buffer)
	prev := Root()
	defer SetDefault(prev)

	SetDefault(NewLogger(NewTerminalHandlerWithLevel(out, slog.LevelDebug, false)))
	Info("package level info", "k", "v")
	assert.Contains(t, out.String(), "package level info")
}
