package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "biofeat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInitDefaults(t *testing.T) {
	cfg, err := Init("", nil)
	require.NoError(t, err)

	assert.Equal(t, "logs", cfg.Logging.Directory)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSize)
	assert.True(t, cfg.Logging.Compress)
	assert.False(t, cfg.Extraction.Extended)
	assert.Equal(t, "last_event", cfg.Extraction.KeystrokeRateBasis)
}

func TestInitFromFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  directory: ""
  level: debug
  max_backups: 1
extraction:
  extended: true
  keystroke_rate_basis: wall_clock
`)

	cfg, err := Init(path, nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.Logging.Directory)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 1, cfg.Logging.MaxBackups)
	assert.Equal(t, 7, cfg.Logging.MaxAge)
	assert.True(t, cfg.Extraction.Extended)
	assert.Equal(t, "wall_clock", cfg.Extraction.KeystrokeRateBasis)
}

func TestInitEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\n")
	t.Setenv("BIOFEAT_LOGGING_LEVEL", "warn")
	t.Setenv("BIOFEAT_EXTRACTION_EXTENDED", "true")

	cfg, err := Init(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Extraction.Extended)
}

func TestInitFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "extraction:\n  keystroke_rate_basis: last_event\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rate-basis", "last_event", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--rate-basis", "wall_clock"}))

	cfg, err := Init(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "wall_clock", cfg.Extraction.KeystrokeRateBasis)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestInitRejectsInvalidSettings(t *testing.T) {
	_, err := Init(writeConfig(t, "extraction:\n  keystroke_rate_basis: first_key\n"), nil)
	assert.ErrorIs(t, err, ErrInvalidRateBasis)

	_, err = Init(writeConfig(t, "logging:\n  max_age: -1\n"), nil)
	assert.ErrorContains(t, err, "must not be negative")
}

func TestInitMissingExplicitFile(t *testing.T) {
	_, err := Init(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}
