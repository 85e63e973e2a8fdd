package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.Query.Limit)
	assert.Equal(t, "none", cfg.Classifier.Model)
	assert.Equal(t, 0.5, cfg.Classifier.Threshold)
	assert.Equal(t, 5, cfg.Signals.Lookback)
	assert.Equal(t, 0.15, cfg.Signals.GravityThreshold)
	assert.Equal(t, 20, cfg.Signals.GravityMinCommits)
	assert.Equal(t, time.Hour, cfg.Patterns.ClusterWindow)
	assert.Equal(t, 50, cfg.Patterns.ConvergenceLimit)
	assert.Equal(t, 4, cfg.Trends.Windows)
	assert.Equal(t, 90, cfg.Trends.WindowDays)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Positive(t, cfg.History.Workers)

	assert.False(t, cfg.Validate(ValidationContextAll).HasErrors())
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GITINTEL_LEDGER_DSN", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
query:
  limit: 25
signals:
  lookback: 8
  refactor_weight: 1.5
patterns:
  cluster_window: 30m
history:
  exclude:
    - "vendor/**"
    - "*.lock"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Query.Limit)
	assert.Equal(t, 8, cfg.Signals.Lookback)
	assert.Equal(t, 1.5, cfg.Signals.RefactorWeight)
	assert.Equal(t, 30*time.Minute, cfg.Patterns.ClusterWindow)
	assert.Equal(t, []string{"vendor/**", "*.lock"}, cfg.History.Exclude)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Query.Limit)
	assert.Equal(t, 0.5, cfg.Classifier.Threshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-from-env-123456")
	t.Setenv("GITINTEL_MODEL", "openai")
	t.Setenv("GITINTEL_MODEL_THRESHOLD", "0.7")
	t.Setenv("GITINTEL_LEDGER_DSN", "postgres://u:p@db:5432/gitintel")
	t.Setenv("GITINTEL_NO_CACHE", "1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env-123456", cfg.API.OpenAIKey)
	assert.Equal(t, "openai", cfg.Classifier.Model)
	assert.Equal(t, 0.7, cfg.Classifier.Threshold)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/gitintel", cfg.Ledger.DSN)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=gm-dotenv-key\n"), 0600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gm-dotenv-key", cfg.API.GeminiKey)
}

func TestSave_OmitsKeys(t *testing.T) {
	cfg := Default()
	cfg.API.OpenAIKey = "sk-secret-value-1234"
	cfg.Query.Limit = 3

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret-value-1234")
	assert.Equal(t, "sk-secret-value-1234", cfg.API.OpenAIKey)
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "models"), expandPath("~/models"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "", expandPath(""))
}
