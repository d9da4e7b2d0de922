package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with a config that keeps logs off disk.
func run(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	dir := t.TempDir()
	cfg := writeFile(t, dir, "biofeat.yaml", "logging:\n  directory: \"\"\n  level: warn\n")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err = cmd.Execute()
	return out.String(), err
}

const keystrokeTrace = `
start: 0
end: 1000
events:
  - {t: 100, type: key, key: a}
  - {t: 250, type: key, key: b}
  - {t: 400, type: key, key: a}
`

func TestExtractSingleSession(t *testing.T) {
	trace := writeFile(t, t.TempDir(), "trace.yaml", keystrokeTrace)

	out, err := run(t, "extract", trace)
	require.NoError(t, err)

	var features map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &features))
	assert.Equal(t, 150.0, features["iki_mean"])
	assert.Equal(t, 3.0, features["total_keystrokes"])
	assert.Equal(t, 2.0, features["unique_keys"])
	assert.InDelta(t, 3.0, features["keystroke_rate"], 1e-9)
	assert.NotContains(t, features, "iki_median")
}

func TestExtractExtendedFlag(t *testing.T) {
	trace := writeFile(t, t.TempDir(), "trace.yaml", keystrokeTrace)

	out, err := run(t, "extract", "--extended", trace)
	require.NoError(t, err)

	var features map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &features))
	assert.Equal(t, 150.0, features["iki_median"])
}

func TestExtractMultipleSessionsKeyedByID(t *testing.T) {
	trace := writeFile(t, t.TempDir(), "trace.jsonl",
		`{"t": 0, "type": "start", "session": "a"}`+"\n"+
			`{"t": 10, "type": "key", "key": "x", "session": "a"}`+"\n"+
			`{"t": 20, "type": "click", "session": "b"}`+"\n")

	out, err := run(t, "extract", trace)
	require.NoError(t, err)

	var bySession map[string]map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &bySession))
	require.Contains(t, bySession, "a")
	require.Contains(t, bySession, "b")
	assert.Equal(t, 1.0, bySession["a"]["total_keystrokes"])
	assert.Contains(t, bySession["b"], "click_rate")
}

func TestExtractData(t *testing.T) {
	trace := writeFile(t, t.TempDir(), "trace.yaml", keystrokeTrace)

	out, err := run(t, "extract", "--data", trace)
	require.NoError(t, err)

	var data struct {
		Keystrokes []map[string]any   `json:"keystrokes"`
		Features   map[string]float64 `json:"features"`
		Duration   *float64           `json:"duration"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Len(t, data.Keystrokes, 3)
	assert.Nil(t, data.Keystrokes[0]["iki"])
	require.NotNil(t, data.Duration)
	assert.Equal(t, 1000.0, *data.Duration)
	assert.Equal(t, 150.0, data.Features["iki_mean"])
}

func TestExtractRejectsConflictingOutputFlags(t *testing.T) {
	trace := writeFile(t, t.TempDir(), "trace.yaml", keystrokeTrace)

	_, err := run(t, "extract", "--data", "--detailed", trace)
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestExtractMissingTrace(t *testing.T) {
	_, err := run(t, "extract", filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestFeaturesCommand(t *testing.T) {
	out, err := run(t, "features")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Len(t, names, 13)
	assert.Equal(t, "iki_mean", names[0])

	out, err = run(t, "features", "--extended")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Len(t, names, 26)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}
