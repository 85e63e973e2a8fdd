package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rohankatakam/gitintel/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextQuery - every analysis subcommand
	ValidationContextQuery ValidationContext = "query"
	// ValidationContextClassify - commands that may call a remote model
	ValidationContextClassify ValidationContext = "classify"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}

	return sb.String()
}

// Err returns the result as a config error, or nil when valid
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigErrorf("%s", strings.TrimSpace(vr.Error()))
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextQuery:
		c.validateQuery(result)
		c.validateSignals(result)
		c.validatePatterns(result)
		c.validateTrends(result)
		c.validateHistory(result)
		c.validateLedger(result)
	case ValidationContextClassify:
		c.validateClassifier(result)
		c.validateAPI(result)
	case ValidationContextAll:
		c.validateQuery(result)
		c.validateClassifier(result)
		c.validateAPI(result)
		c.validateSignals(result)
		c.validatePatterns(result)
		c.validateTrends(result)
		c.validateHistory(result)
		c.validateLedger(result)
	}

	return result
}

func (c *Config) validateQuery(result *ValidationResult) {
	if c.Query.Limit < 0 {
		result.AddError("query.limit must be >= 0, got %d", c.Query.Limit)
	}
}

func (c *Config) validateClassifier(result *ValidationResult) {
	switch c.Classifier.Model {
	case "", "none":
	case "local":
		if c.Classifier.ModelDir == "" {
			result.AddWarning("classifier.model_dir is not set. The model stage will be skipped.")
		}
	case string(ProviderOpenAI), string(ProviderGemini):
	default:
		result.AddError("classifier.model must be one of none, local, openai, gemini; got %q", c.Classifier.Model)
	}

	if c.Classifier.Threshold < 0 || c.Classifier.Threshold > 1 {
		result.AddError("classifier.threshold is out of range [0,1]: %.2f", c.Classifier.Threshold)
	}
}

func (c *Config) validateAPI(result *ValidationResult) {
	switch c.Classifier.Model {
	case string(ProviderOpenAI):
		if c.API.OpenAIKey == "" {
			result.AddWarning("OPENAI_API_KEY is not set. The model stage will be skipped.")
		}
		if c.API.OpenAIModel == "" {
			result.AddWarning("api.openai_model is not set, will use default model")
		}
	case string(ProviderGemini):
		if c.API.GeminiKey == "" {
			result.AddWarning("GEMINI_API_KEY is not set. The model stage will be skipped.")
		}
	}

	if c.API.RateLimit <= 0 {
		result.AddWarning("api.rate_limit is invalid, requests will not be throttled")
	}
}

func (c *Config) validateSignals(result *ValidationResult) {
	s := c.Signals
	if s.Lookback < 1 {
		result.AddError("signals.lookback must be >= 1, got %d", s.Lookback)
	}
	if s.GravityThreshold <= 0 || s.GravityThreshold > 1 {
		result.AddError("signals.gravity_threshold is out of range (0,1]: %.2f", s.GravityThreshold)
	}
	if s.GravityMinCommits < 0 {
		result.AddError("signals.gravity_min_commits must be >= 0, got %d", s.GravityMinCommits)
	}
	for name, w := range map[string]float64{"feat_weight": s.FeatWeight, "refactor_weight": s.RefactorWeight} {
		if w < 0 {
			result.AddError("signals.%s must be >= 0, got %.2f", name, w)
		}
	}
	for name, m := range map[string]float64{"feat_min_severity": s.FeatMinSeverity, "refactor_min_severity": s.RefactorMinSeverity} {
		if m < 0 || m > 1 {
			result.AddError("signals.%s is out of range [0,1]: %.2f", name, m)
		}
	}
}

func (c *Config) validatePatterns(result *ValidationResult) {
	p := c.Patterns
	if p.MultiEditMinCommits < 1 {
		result.AddError("patterns.multi_edit_min_commits must be >= 1, got %d", p.MultiEditMinCommits)
	}
	if p.DirectoryDepth < 1 {
		result.AddError("patterns.directory_depth must be >= 1, got %d", p.DirectoryDepth)
	}
	if p.ClusterMinCommits < 2 {
		result.AddError("patterns.cluster_min_commits must be >= 2, got %d", p.ClusterMinCommits)
	}
	if p.ClusterWindow <= 0 {
		result.AddError("patterns.cluster_window must be positive, got %s", p.ClusterWindow)
	}
	if p.ConvergenceLimit < 0 {
		result.AddError("patterns.convergence_limit must be >= 0, got %d", p.ConvergenceLimit)
	}
}

func (c *Config) validateTrends(result *ValidationResult) {
	if c.Trends.Windows < 1 {
		result.AddError("trends.windows must be >= 1, got %d", c.Trends.Windows)
	}
	if c.Trends.WindowDays < 1 {
		result.AddError("trends.window_days must be >= 1, got %d", c.Trends.WindowDays)
	}
}

func (c *Config) validateHistory(result *ValidationResult) {
	switch c.History.Backend {
	case "", "go-git", "git-cli":
	default:
		result.AddError("history.backend must be go-git or git-cli; got %q", c.History.Backend)
	}
	if c.History.Workers < 1 {
		result.AddWarning("history.workers is %d, will use 1", c.History.Workers)
	}
}

func (c *Config) validateLedger(result *ValidationResult) {
	if !c.Ledger.Enabled {
		return
	}
	switch c.Ledger.Driver {
	case "", "sqlite":
	case "postgres":
		if c.Ledger.DSN == "" {
			result.AddError("ledger.dsn is required when ledger.driver is 'postgres'")
			return
		}
		if !strings.HasPrefix(c.Ledger.DSN, "postgres://") && !strings.HasPrefix(c.Ledger.DSN, "postgresql://") {
			result.AddError("ledger.dsn must start with postgres:// or postgresql://")
		} else if _, err := url.Parse(c.Ledger.DSN); err != nil {
			result.AddError("ledger.dsn is invalid: %v", err)
		}
		if strings.Contains(c.Ledger.DSN, "sslmode=disable") {
			result.AddWarning("ledger.dsn has sslmode=disable")
		}
	default:
		result.AddError("ledger.driver must be sqlite or postgres; got %q", c.Ledger.Driver)
	}
}
