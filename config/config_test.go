package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deskmesh/logging"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, time.Second, cfg.Model.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Model.PollTimeout)
	assert.False(t, cfg.Browser.Enabled)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "about:blank", cfg.Browser.StartURL)
	assert.Equal(t, 64, cfg.Runner.StatusBufferSize)
	assert.Equal(t, 100, cfg.Runner.MaxSteps)
	assert.False(t, cfg.Snapshot.Keep)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
model:
  provider: anthropic
  name: claude-sonnet-4-20250514
  poll_interval: 2s
browser:
  enabled: true
  headless: false
runner:
  max_steps: 7
snapshot:
  keep: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model.Name)
	assert.Equal(t, 2*time.Second, cfg.Model.PollInterval)
	assert.True(t, cfg.Browser.Enabled)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 7, cfg.Runner.MaxSteps)
	assert.True(t, cfg.Snapshot.Keep)

	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 64, cfg.Runner.StatusBufferSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DESKMESH_MODEL_PROVIDER", "mock")
	t.Setenv("DESKMESH_RUNNER_MAX_STEPS", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Model.Provider)
	assert.Equal(t, 3, cfg.Runner.MaxSteps)
}

func TestLogLevelMapping(t *testing.T) {
	assert.Equal(t, logging.LogLevelDebug, LoggerConfig{Level: "debug"}.LogLevel())
	assert.Equal(t, logging.LogLevelWarn, LoggerConfig{Level: "warning"}.LogLevel())
	assert.Equal(t, logging.LogLevelError, LoggerConfig{Level: "error"}.LogLevel())
	assert.Equal(t, logging.LogLevelInfo, LoggerConfig{Level: ""}.LogLevel())
	assert.Equal(t, logging.LogLevelInfo, LoggerConfig{Level: "nonsense"}.LogLevel())
}
