package logx

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Format: "json", Out: &buf})
	l.Info("hidden")
	l.Warn("shown", "result_id", "RES_1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"result_id":"RES_1"`)
}

func TestRollbarHandlerMirrorsWarnings(t *testing.T) {
	type call struct {
		level  slog.Level
		msg    string
		err    error
		extras map[string]interface{}
	}
	var calls []call
	var buf bytes.Buffer
	h := &rollbarHandler{
		next: slog.NewTextHandler(&buf, nil),
		report: func(level slog.Level, msg string, err error, extras map[string]interface{}) {
			calls = append(calls, call{level, msg, err, extras})
		},
	}
	boom := errors.New("boom")
	l := slog.New(h).With("component", "sync")
	l.Info("quiet")
	l.Error("submit failed", "err", boom, "result_id", "RES_2")

	require.Len(t, calls, 1)
	assert.Equal(t, slog.LevelError, calls[0].level)
	assert.Equal(t, boom, calls[0].err)
	assert.Equal(t, "sync", calls[0].extras["component"])
	assert.Equal(t, "RES_2", calls[0].extras["result_id"])
	assert.Contains(t, buf.String(), "quiet")
}
