package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Result-count limit applied when --limit is omitted
	Query QueryConfig `yaml:"query" mapstructure:"query"`

	// Commit classification and optional statistical model
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`

	// Remote model provider credentials
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Fix-after-X signal filters and weights
	Signals SignalsConfig `yaml:"signals" mapstructure:"signals"`

	// Raw pattern thresholds
	Patterns PatternsConfig `yaml:"patterns" mapstructure:"patterns"`

	// Trend window settings
	Trends TrendsConfig `yaml:"trends" mapstructure:"trends"`

	// Result cache
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Commit source settings
	History HistoryConfig `yaml:"history" mapstructure:"history"`

	// Run ledger
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`

	// Log output
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

type QueryConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"`
}

type ClassifierConfig struct {
	Model     string  `yaml:"model" mapstructure:"model"` // "none", "local", "openai", "gemini"
	ModelDir  string  `yaml:"model_dir" mapstructure:"model_dir"`
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

type APIConfig struct {
	OpenAIKey   string        `yaml:"openai_key" mapstructure:"openai_key"`
	OpenAIModel string        `yaml:"openai_model" mapstructure:"openai_model"`
	GeminiKey   string        `yaml:"gemini_key" mapstructure:"gemini_key"`
	GeminiModel string        `yaml:"gemini_model" mapstructure:"gemini_model"`
	UseKeychain bool          `yaml:"use_keychain" mapstructure:"use_keychain"`
	RateLimit   float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Optional quota shared across processes
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr"`
	QuotaRPM  int64  `yaml:"quota_rpm" mapstructure:"quota_rpm"`
	QuotaRPD  int64  `yaml:"quota_rpd" mapstructure:"quota_rpd"`
}

type SignalsConfig struct {
	Lookback          int     `yaml:"lookback" mapstructure:"lookback"`
	GravityThreshold  float64 `yaml:"gravity_threshold" mapstructure:"gravity_threshold"`
	GravityMinCommits int     `yaml:"gravity_min_commits" mapstructure:"gravity_min_commits"`

	// Per-kind tuning; fix_after_refactor is the more reliable kind
	FeatWeight          float64 `yaml:"feat_weight" mapstructure:"feat_weight"`
	RefactorWeight      float64 `yaml:"refactor_weight" mapstructure:"refactor_weight"`
	FeatMinSeverity     float64 `yaml:"feat_min_severity" mapstructure:"feat_min_severity"`
	RefactorMinSeverity float64 `yaml:"refactor_min_severity" mapstructure:"refactor_min_severity"`
}

type PatternsConfig struct {
	MultiEditMinCommits int           `yaml:"multi_edit_min_commits" mapstructure:"multi_edit_min_commits"`
	MultiEditMinChurn   int           `yaml:"multi_edit_min_churn" mapstructure:"multi_edit_min_churn"`
	DirectoryDepth      int           `yaml:"directory_depth" mapstructure:"directory_depth"`
	DirectoryMinCommits int           `yaml:"directory_min_commits" mapstructure:"directory_min_commits"`
	ClusterMinCommits   int           `yaml:"cluster_min_commits" mapstructure:"cluster_min_commits"`
	ClusterWindow       time.Duration `yaml:"cluster_window" mapstructure:"cluster_window"`
	ConvergenceLimit    int           `yaml:"convergence_limit" mapstructure:"convergence_limit"`
	ConvergenceMinBytes int64         `yaml:"convergence_min_bytes" mapstructure:"convergence_min_bytes"`
}

type TrendsConfig struct {
	Windows    int `yaml:"windows" mapstructure:"windows"`
	WindowDays int `yaml:"window_days" mapstructure:"window_days"`
	TopChurn   int `yaml:"top_churn" mapstructure:"top_churn"`
}

type CacheConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Directory string `yaml:"directory" mapstructure:"directory"` // empty = <git-dir>/git-intel-cache
	Compress  bool   `yaml:"compress" mapstructure:"compress"`
}

type HistoryConfig struct {
	Backend  string   `yaml:"backend" mapstructure:"backend"` // "go-git" or "git-cli"
	Exclude  []string `yaml:"exclude" mapstructure:"exclude"`
	Workers  int      `yaml:"workers" mapstructure:"workers"`
	DiffMemo bool     `yaml:"diff_memo" mapstructure:"diff_memo"`
}

type LedgerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver  string `yaml:"driver" mapstructure:"driver"` // "sqlite", "postgres"
	Path    string `yaml:"path" mapstructure:"path"`     // sqlite file; empty = <git-dir>/git-intel-cache/ledger.db
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
}

type LoggingConfig struct {
	File string `yaml:"file" mapstructure:"file"`
	JSON bool   `yaml:"json" mapstructure:"json"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Query: QueryConfig{
			Limit: 10,
		},
		Classifier: ClassifierConfig{
			Model:     "none",
			Threshold: 0.5,
		},
		API: APIConfig{
			OpenAIModel: "gpt-4o-mini",
			GeminiModel: "gemini-2.0-flash",
			RateLimit:   5,
			Timeout:     10 * time.Second,
		},
		Signals: SignalsConfig{
			Lookback:          5,
			GravityThreshold:  0.15,
			GravityMinCommits: 20,
			FeatWeight:        1.0,
			RefactorWeight:    1.0,
		},
		Patterns: PatternsConfig{
			MultiEditMinCommits: 3,
			MultiEditMinChurn:   100,
			DirectoryDepth:      2,
			DirectoryMinCommits: 3,
			ClusterMinCommits:   3,
			ClusterWindow:       time.Hour,
			ConvergenceLimit:    50,
			ConvergenceMinBytes: 500,
		},
		Trends: TrendsConfig{
			Windows:    4,
			WindowDays: 90,
			TopChurn:   10,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		History: HistoryConfig{
			Backend:  "go-git",
			Workers:  runtime.NumCPU(),
			DiffMemo: true,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Driver:  "sqlite",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	v.SetDefault("query", cfg.Query)
	v.SetDefault("classifier", cfg.Classifier)
	v.SetDefault("api", cfg.API)
	v.SetDefault("signals", cfg.Signals)
	v.SetDefault("patterns", cfg.Patterns)
	v.SetDefault("trends", cfg.Trends)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("history", cfg.History)
	v.SetDefault("ledger", cfg.Ledger)
	v.SetDefault("logging", cfg.Logging)

	// Load from environment variables
	v.SetEnvPrefix("GITINTEL")
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".gitintel")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".gitintel"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".gitintel", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		_ = godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// Precedence: 1. Env var (highest) 2. Keychain 3. Config file (lowest)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.API.OpenAIKey = key
	} else if cfg.API.OpenAIKey == "" && cfg.API.UseKeychain {
		km := NewKeyringManager()
		if km.IsAvailable() {
			if keychainKey, err := km.GetAPIKey(ProviderOpenAI); err == nil && keychainKey != "" {
				cfg.API.OpenAIKey = keychainKey
			}
		}
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.API.GeminiKey = key
	} else if cfg.API.GeminiKey == "" && cfg.API.UseKeychain {
		km := NewKeyringManager()
		if km.IsAvailable() {
			if keychainKey, err := km.GetAPIKey(ProviderGemini); err == nil && keychainKey != "" {
				cfg.API.GeminiKey = keychainKey
			}
		}
	}

	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.API.OpenAIModel = model
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.API.GeminiModel = model
	}

	if addr := os.Getenv("GITINTEL_REDIS_ADDR"); addr != "" {
		cfg.API.RedisAddr = addr
	}

	if model := os.Getenv("GITINTEL_MODEL"); model != "" {
		cfg.Classifier.Model = model
	}
	if dir := os.Getenv("GITINTEL_MODEL_DIR"); dir != "" {
		cfg.Classifier.ModelDir = expandPath(dir)
	}
	if threshold := os.Getenv("GITINTEL_MODEL_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			cfg.Classifier.Threshold = t
		}
	}

	if dir := os.Getenv("GITINTEL_CACHE_DIR"); dir != "" {
		cfg.Cache.Directory = expandPath(dir)
	}
	if disabled := os.Getenv("GITINTEL_NO_CACHE"); disabled == "1" || disabled == "true" {
		cfg.Cache.Enabled = false
	}

	if dsn := os.Getenv("GITINTEL_LEDGER_DSN"); dsn != "" {
		cfg.Ledger.Driver = "postgres"
		cfg.Ledger.DSN = dsn
	}
	if path := os.Getenv("GITINTEL_LEDGER_PATH"); path != "" {
		cfg.Ledger.Path = expandPath(path)
	}

	if workers := os.Getenv("GITINTEL_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			cfg.History.Workers = n
		}
	}

	cfg.Classifier.ModelDir = expandPath(cfg.Classifier.ModelDir)
	cfg.Cache.Directory = expandPath(cfg.Cache.Directory)
	cfg.Ledger.Path = expandPath(cfg.Ledger.Path)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file. API keys are never written.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	api := c.API
	api.OpenAIKey = ""
	api.GeminiKey = ""

	v.Set("query", c.Query)
	v.Set("classifier", c.Classifier)
	v.Set("api", api)
	v.Set("signals", c.Signals)
	v.Set("patterns", c.Patterns)
	v.Set("trends", c.Trends)
	v.Set("cache", c.Cache)
	v.Set("history", c.History)
	v.Set("ledger", c.Ledger)
	v.Set("logging", c.Logging)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
