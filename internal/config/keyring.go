package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "gitintel"
)

// Provider names a remote classification model provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// keyringItem is the keychain entry name for a provider's API key
func (p Provider) keyringItem() string {
	return string(p) + "-api-key"
}

// EnvVar is the environment variable that overrides the stored key
func (p Provider) EnvVar() string {
	switch p {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// ParseProvider maps a classifier model name to a remote provider
func ParseProvider(name string) (Provider, bool) {
	switch Provider(name) {
	case ProviderOpenAI, ProviderGemini:
		return Provider(name), true
	}
	return "", false
}

// KeyringManager handles secure credential storage in OS keychain
type KeyringManager struct {
	logger *slog.Logger
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: slog.Default().With("component", "keyring"),
	}
}

// SaveAPIKey stores a provider API key in the OS keychain
// - macOS: Keychain Access.app → "gitintel" → "openai-api-key"
// - Windows: Credential Manager → "gitintel"
// - Linux: Secret Service (requires libsecret)
func (km *KeyringManager) SaveAPIKey(provider Provider, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("api key cannot be empty")
	}

	err := keyring.Set(KeyringService, provider.keyringItem(), apiKey)
	if err != nil {
		km.logger.Error("failed to save API key to keychain", "provider", provider, "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}

	km.logger.Info("api key saved to keychain", "service", KeyringService, "provider", provider)
	return nil
}

// GetAPIKey retrieves a provider API key from the OS keychain
func (km *KeyringManager) GetAPIKey(provider Provider) (string, error) {
	apiKey, err := keyring.Get(KeyringService, provider.keyringItem())
	if err == keyring.ErrNotFound {
		// Not an error - just not set yet
		return "", nil
	}
	if err != nil {
		km.logger.Error("failed to get API key from keychain", "provider", provider, "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}

	km.logger.Debug("api key retrieved from keychain", "provider", provider)
	return apiKey, nil
}

// DeleteAPIKey removes a provider API key from the OS keychain
func (km *KeyringManager) DeleteAPIKey(provider Provider) error {
	err := keyring.Delete(KeyringService, provider.keyringItem())
	if err == keyring.ErrNotFound {
		// Already deleted, not an error
		return nil
	}
	if err != nil {
		km.logger.Error("failed to delete API key from keychain", "provider", provider, "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}

	km.logger.Info("api key deleted from keychain", "provider", provider)
	return nil
}

// IsAvailable checks if OS keychain is available
// Returns false on headless systems (CI/CD) where keychain isn't available
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")

	// "not found" means the keychain answered
	if err == keyring.ErrNotFound {
		return true
	}
	if err != nil {
		km.logger.Debug("keychain not available", "error", err)
		return false
	}

	return true
}

// KeySourceInfo returns information about where the API key is stored
type KeySourceInfo struct {
	Source      string // "keychain", "config", "env", "none"
	Secure      bool
	Recommended string
}

// GetAPIKeySource determines where a provider's API key is coming from
func (km *KeyringManager) GetAPIKeySource(cfg *Config, provider Provider) KeySourceInfo {
	if os.Getenv(provider.EnvVar()) != "" {
		return KeySourceInfo{
			Source:      "env",
			Secure:      true,
			Recommended: "Using environment variable (good for CI/CD)",
		}
	}

	if keychainKey, _ := km.GetAPIKey(provider); keychainKey != "" {
		return KeySourceInfo{
			Source:      "keychain",
			Secure:      true,
			Recommended: "Stored securely in OS keychain",
		}
	}

	configKey := cfg.API.OpenAIKey
	if provider == ProviderGemini {
		configKey = cfg.API.GeminiKey
	}
	if configKey != "" {
		return KeySourceInfo{
			Source:      "config",
			Secure:      false,
			Recommended: "Plaintext storage detected. Run: gitintel configure --provider " + string(provider),
		}
	}

	return KeySourceInfo{
		Source:      "none",
		Secure:      false,
		Recommended: "No API key configured. Run: gitintel configure --provider " + string(provider),
	}
}

// MaskAPIKey masks an API key for display
// Shows first 7 chars and last 4 chars: "sk-proj...abc123"
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "(not set)"
	}
	if len(apiKey) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", apiKey[:7], apiKey[len(apiKey)-4:])
}
