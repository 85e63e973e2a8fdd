package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/config"
	"github.com/rohankatakam/gitintel/internal/errors"
)

var (
	providerFlag   string
	setDefaultFlag bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Store a model provider API key (OS keychain when available)",
	Long: `Prompt for an OpenAI or Gemini API key without echoing it and store it in
the OS keychain, falling back to ~/.gitintel/credentials.yaml with user-only
permissions. With --set-default the provider also becomes the configured
classifier model in ~/.gitintel/config.yaml.

The key is read from stdin when it is not a terminal:
  echo "$OPENAI_API_KEY" | gitintel configure --provider openai`,
	Args: cobra.NoArgs,
	// configure must work before a valid query configuration exists
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&providerFlag, "provider", "openai", "provider: openai or gemini")
	configureCmd.Flags().BoolVar(&setDefaultFlag, "set-default", false, "also select this provider as the classifier model")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	provider, ok := config.ParseProvider(providerFlag)
	if !ok {
		return errors.InvalidParam("provider", "invalid --provider %q (expected openai or gemini)", providerFlag)
	}

	cm := config.NewCredentialManager()
	key, err := cm.Prompt(provider)
	if err != nil {
		return err
	}
	where, err := cm.SaveAPIKey(provider, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s API key (%s) saved to %s\n", provider, config.MaskAPIKey(key), where)

	if !setDefaultFlag {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return errors.FileSystemError(err, "failed to locate home directory")
	}
	path := filepath.Join(homeDir, ".gitintel", "config.yaml")
	loaded, err := config.Load(path)
	if err != nil {
		loaded = config.Default()
	}
	loaded.Classifier.Model = string(provider)
	loaded.API.UseKeychain = where == "keychain"
	if err := loaded.Save(path); err != nil {
		return errors.FileSystemError(err, "failed to save configuration")
	}
	fmt.Fprintf(os.Stderr, "Classifier model set to %s in %s\n", provider, path)
	return nil
}
