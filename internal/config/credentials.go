package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rohankatakam/gitintel/internal/errors"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// CredentialManager handles credential retrieval with priority chain
// Priority: Environment Variables → Keychain → Credentials File → Interactive Prompt
type CredentialManager struct {
	keyring    *KeyringManager
	configPath string
	in         io.Reader
	out        io.Writer
}

// Credentials holds provider API keys stored outside the keychain
type Credentials struct {
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`
}

func (c *Credentials) get(p Provider) string {
	if p == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

func (c *Credentials) set(p Provider, key string) {
	if p == ProviderGemini {
		c.GeminiAPIKey = key
		return
	}
	c.OpenAIAPIKey = key
}

// NewCredentialManager creates a new credential manager
func NewCredentialManager() *CredentialManager {
	homeDir, _ := os.UserHomeDir()
	return &CredentialManager{
		keyring:    NewKeyringManager(),
		configPath: filepath.Join(homeDir, ".gitintel", "credentials.yaml"),
		in:         os.Stdin,
		out:        os.Stderr,
	}
}

// GetAPIKey retrieves a provider key using the priority chain. A missing key
// is not an error: remote classification is optional.
func (cm *CredentialManager) GetAPIKey(provider Provider) (string, error) {
	if key := os.Getenv(provider.EnvVar()); key != "" {
		return key, nil
	}

	if cm.keyring.IsAvailable() {
		if key, err := cm.keyring.GetAPIKey(provider); err == nil && key != "" {
			return key, nil
		}
	}

	creds, err := cm.loadConfigFile()
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityMedium,
			"failed to read credentials file")
	}
	if creds != nil {
		return creds.get(provider), nil
	}
	return "", nil
}

// SaveAPIKey saves a key to the keychain (preferred) or the credentials file (fallback)
// and reports where it went.
func (cm *CredentialManager) SaveAPIKey(provider Provider, key string) (string, error) {
	if key == "" {
		return "", errors.ValidationErrorf("%s API key is required", provider)
	}

	if cm.keyring.IsAvailable() {
		if err := cm.keyring.SaveAPIKey(provider, key); err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				"failed to save API key to keychain")
		}
		return "keychain", nil
	}

	creds, err := cm.loadConfigFile()
	if err != nil {
		creds = &Credentials{}
	}
	creds.set(provider, key)
	if err := cm.saveConfigFile(*creds); err != nil {
		return "", errors.FileSystemError(err, "failed to write credentials file")
	}
	return cm.configPath, nil
}

// Prompt asks for a provider key on the terminal without echoing it
func (cm *CredentialManager) Prompt(provider Provider) (string, error) {
	fmt.Fprintf(cm.out, "Enter %s API key: ", provider)
	key, err := cm.readSecurely()
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.ValidationErrorf("%s API key is required", provider)
	}
	if provider == ProviderOpenAI && !strings.HasPrefix(key, "sk-") {
		return "", errors.ValidationErrorf("OpenAI API key should start with 'sk-'")
	}
	return key, nil
}

// loadConfigFile loads credentials from the credentials file
func (cm *CredentialManager) loadConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	return &creds, nil
}

// saveConfigFile saves credentials with user-only permissions
func (cm *CredentialManager) saveConfigFile(creds Credentials) error {
	dir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	return os.WriteFile(cm.configPath, data, 0600)
}

// readSecurely reads a secret from stdin without echoing
func (cm *CredentialManager) readSecurely() (string, error) {
	if cm.in == os.Stdin && term.IsTerminal(int(syscall.Stdin)) {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(cm.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// Piped input
	reader := bufio.NewReader(cm.in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetConfigPath returns the path to the credentials file
func (cm *CredentialManager) GetConfigPath() string {
	return cm.configPath
}
