package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrace(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTraceYAML(t *testing.T) {
	path := writeTrace(t, "trace.yaml", `
session: desk
start: 0
events:
  - {t: 100, type: key, key: a, code: KeyA}
  - {t: 120, type: move, x: 3, y: 4}
  - {t: 130, type: click, x: 3, y: 4, button: 1, session: other}
`)

	trace, err := LoadTrace(path)
	require.NoError(t, err)

	assert.Equal(t, Some(0), trace.Start)
	assert.False(t, trace.End.Valid)
	require.Len(t, trace.Events, 3)
	assert.Equal(t, TraceEvent{T: 100, Type: TraceKey, Session: "desk", Key: "a", Code: "KeyA"}, trace.Events[0])
	assert.Equal(t, 4.0, trace.Events[1].Y)
	assert.Equal(t, 1, trace.Events[2].Button)
	assert.Equal(t, "other", trace.Events[2].Session)
}

func TestLoadTraceJSON(t *testing.T) {
	path := writeTrace(t, "trace.json", `{"end": 900, "events": [{"t": 5, "type": "start"}]}`)

	trace, err := LoadTrace(path)
	require.NoError(t, err)
	assert.Equal(t, Some(900), trace.End)
	assert.Equal(t, TraceStart, trace.Events[0].Type)
}

func TestLoadTraceJSONL(t *testing.T) {
	path := writeTrace(t, "trace.jsonl", strings.Join([]string{
		`{"t": 1, "type": "start"}`,
		``,
		`{"t": 2, "type": "key", "key": "x", "session": "s1"}`,
	}, "\n"))

	trace, err := LoadTrace(path)
	require.NoError(t, err)
	require.Len(t, trace.Events, 2)
	assert.Equal(t, "s1", trace.Events[1].Session)
	assert.Empty(t, trace.Events[0].Session)
}

func TestLoadTraceErrors(t *testing.T) {
	_, err := LoadTrace(writeTrace(t, "empty.yaml", "events: []\n"))
	assert.ErrorIs(t, err, ErrEmptyTrace)

	_, err = LoadTrace(writeTrace(t, "bad.yaml", "events:\n  - {t: 1, type: scroll}\n"))
	assert.ErrorContains(t, err, `unknown type "scroll"`)

	_, err = LoadTrace(writeTrace(t, "bad.jsonl", "{\"t\": 1, \"type\": \"key\"}\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = LoadTrace(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeTraceLine(t *testing.T) {
	ev, ok, err := DecodeTraceLine([]byte("  \t"))
	require.NoError(t, err)
	assert.False(t, ok)

	ev, ok, err = DecodeTraceLine([]byte(`{"t": 7, "type": "move", "x": 1, "y": 2}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, TraceEvent{T: 7, Type: TraceMove, X: 1, Y: 2}, ev)

	_, _, err = DecodeTraceLine([]byte(`{"t": 7, "type": "wheel"}`))
	assert.Error(t, err)
}
