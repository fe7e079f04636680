package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestInfoWritesKeyValues(t *testing.T) {
	buf := capture(t)

	Info("event created", "id", "evt_1", "date", "2024-03-05", 42, "skipped", "dangling")

	out := buf.String()
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, `msg="event created"`)
	assert.Contains(t, out, "id=evt_1")
	assert.Contains(t, out, "date=2024-03-05")
	assert.NotContains(t, out, "skipped")
	assert.NotContains(t, out, "dangling")
}

func TestErrorIncludesErr(t *testing.T) {
	buf := capture(t)

	Error("save failed", errors.New("disk full"), "bytes", 10)

	out := buf.String()
	assert.Contains(t, out, "level=error")
	assert.Contains(t, out, `error="disk full"`)
	assert.Contains(t, out, "bytes=10")
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	Debug("hidden")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debug("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	SetLevel(LevelError)
	Warn("quiet")
	Info("quiet")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}
