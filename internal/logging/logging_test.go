package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyapi/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("whatever"))
}

func TestNewWithWriter(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"})
		logger.Info("hello", "component", "test")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "test", entry["component"])
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"})
		logger.Info("dropped")
		assert.Zero(t, buf.Len())
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, config.LogConfig{Format: "text"})
		logger.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})
}
