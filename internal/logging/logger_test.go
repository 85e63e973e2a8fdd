package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: WARN, Writer: &buf})
	require.NoError(t, err)

	logger.Slog().Info("hidden")
	logger.Slog().Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNewLogger_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: DEBUG, JSONFormat: true, Writer: &buf})
	require.NoError(t, err)

	logger.With("component", "cache").Slog().Debug("miss", "key", "patterns-all-all.json")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cache", entry["component"])
	assert.Equal(t, "miss", entry["msg"])
}

func TestNewLogger_FileRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gitintel.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 64), 0644))

	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: INFO, OutputFile: path, MaxSize: 32, Writer: &buf})
	require.NoError(t, err)
	logger.Slog().Info("fresh")
	require.NoError(t, logger.Close())

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fresh")
	assert.Contains(t, buf.String(), "fresh")
}

func TestCLIConfig(t *testing.T) {
	assert.Equal(t, WARN, CLIConfig(false, "", false).Level)
	cfg := CLIConfig(true, "/tmp/x.log", true)
	assert.Equal(t, DEBUG, cfg.Level)
	assert.True(t, cfg.AddSource)
	assert.True(t, cfg.JSONFormat)
}

func TestComponent_BeforeInitialize(t *testing.T) {
	assert.NotNil(t, Component("git"))
}
