package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestNewLoggerDefaults(t *testing.T) {
	logger := NewLogger(nil)
	require.NotNil(t, logger)
	assert.Equal(t, LogLevelInfo, logger.level)
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("visible warn")
	logger.Error("visible error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, "visible error")
}

func TestLoggerContextualFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	scoped := logger.WithComponent("runner").WithSession("sess-1")
	scoped.Info("hello", "step", 3)

	out := buf.String()
	assert.Contains(t, out, `"component":"runner"`)
	assert.Contains(t, out, `"session_id":"sess-1"`)
	assert.Contains(t, out, `"step":3`)

	// The parent logger must stay unscoped.
	buf.Reset()
	logger.Info("plain")
	assert.NotContains(t, buf.String(), "runner")
}

func TestLogStep(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	logger.LogStep(2, "click", 5*time.Millisecond, nil)
	assert.Contains(t, buf.String(), "Step completed")

	buf.Reset()
	logger.LogStep(3, "click", 5*time.Millisecond, errors.New("boom"))
	out := buf.String()
	assert.Contains(t, out, "Step failed")
	assert.Contains(t, out, "boom")
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = NoOpLogger{}
	assert.NotPanics(t, func() {
		logger.Debug("a")
		logger.Info("b")
		logger.Warn("c")
		logger.Error("d", "k", "v")
	})
}
