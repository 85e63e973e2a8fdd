package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func newTestCredentialManager(t *testing.T, input string) *CredentialManager {
	t.Helper()
	return &CredentialManager{
		keyring:    NewKeyringManager(),
		configPath: filepath.Join(t.TempDir(), "credentials.yaml"),
		in:         strings.NewReader(input),
		out:        &bytes.Buffer{},
	}
}

func TestCredentialManager_EnvWins(t *testing.T) {
	keyring.MockInit()
	cm := newTestCredentialManager(t, "")
	t.Setenv("OPENAI_API_KEY", "sk-env-key-000000")

	_, err := cm.SaveAPIKey(ProviderOpenAI, "sk-keychain-key-11")
	require.NoError(t, err)

	key, err := cm.GetAPIKey(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-env-key-000000", key)
}

func TestCredentialManager_KeychainThenFile(t *testing.T) {
	keyring.MockInit()
	cm := newTestCredentialManager(t, "")
	t.Setenv("GEMINI_API_KEY", "")

	key, err := cm.GetAPIKey(ProviderGemini)
	require.NoError(t, err)
	assert.Empty(t, key)

	where, err := cm.SaveAPIKey(ProviderGemini, "gm-stored-key")
	require.NoError(t, err)
	assert.Equal(t, "keychain", where)

	key, err = cm.GetAPIKey(ProviderGemini)
	require.NoError(t, err)
	assert.Equal(t, "gm-stored-key", key)
}

func TestCredentialManager_FileFallback(t *testing.T) {
	keyring.MockInitWithError(assert.AnError)
	cm := newTestCredentialManager(t, "")
	t.Setenv("OPENAI_API_KEY", "")

	where, err := cm.SaveAPIKey(ProviderOpenAI, "sk-file-key-1234")
	require.NoError(t, err)
	assert.Equal(t, cm.GetConfigPath(), where)

	info, err := os.Stat(cm.GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	key, err := cm.GetAPIKey(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-file-key-1234", key)
}

func TestCredentialManager_Prompt(t *testing.T) {
	keyring.MockInit()

	key, err := newTestCredentialManager(t, "sk-typed-key-9999\n").Prompt(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-typed-key-9999", key)

	_, err = newTestCredentialManager(t, "not-a-key\n").Prompt(ProviderOpenAI)
	assert.Error(t, err)

	_, err = newTestCredentialManager(t, "\n").Prompt(ProviderGemini)
	assert.Error(t, err)

	key, err = newTestCredentialManager(t, "gm-key").Prompt(ProviderGemini)
	require.NoError(t, err)
	assert.Equal(t, "gm-key", key)
}
