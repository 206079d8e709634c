package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/downline/internal/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "JSON"}, &buf)

	logger.Info("hidden")
	logger.Warn("scope truncated", "root", "u1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scope truncated", entry["msg"])
	assert.Equal(t, "u1", entry["root"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewWithWriter_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Info("connecting", "dsn", "postgres://app:secret@db/agency", "Password", "hunter2", "uri", "bolt://graph:7687")

	out := buf.String()
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "bolt://graph:7687")
	assert.Contains(t, out, "[redacted]")
}
