package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rohankatakam/gitintel/internal/classify"
	"github.com/rohankatakam/gitintel/internal/config"
)

// Provider represents the model backing the classifier's model stage
type Provider string

const (
	ProviderNone   Provider = "none"
	ProviderLocal  Provider = "local"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// NewModel builds the model named by cfg.Classifier.Model. It returns a nil
// model, not an error, when the model stage is off or the model cannot be
// built: classification then ends at the heuristic stages. Only an unknown
// model name is an error.
func NewModel(ctx context.Context, cfg *config.Config) (classify.Model, error) {
	logger := slog.Default().With("component", "llm")

	switch Provider(cfg.Classifier.Model) {
	case "", ProviderNone:
		return nil, nil
	case ProviderLocal:
		m, err := classify.LoadLinearModel(cfg.Classifier.ModelDir)
		if err != nil {
			logger.Warn("local model unavailable, model stage disabled", "dir", cfg.Classifier.ModelDir, "error", err)
			return nil, nil
		}
		logger.Debug("local model loaded", "dir", cfg.Classifier.ModelDir)
		return m, nil
	case ProviderOpenAI:
		if cfg.API.OpenAIKey == "" {
			logger.Warn("openai model selected but no API key configured, model stage disabled")
			logger.Info("set OPENAI_API_KEY or run 'gitintel configure --provider openai'")
			return nil, nil
		}
		return wrapRemote(ctx, cfg, string(ProviderOpenAI), NewOpenAIModel(cfg.API.OpenAIKey, cfg.API.OpenAIModel), logger), nil
	case ProviderGemini:
		if cfg.API.GeminiKey == "" {
			logger.Warn("gemini model selected but no API key configured, model stage disabled")
			logger.Info("set GEMINI_API_KEY or run 'gitintel configure --provider gemini'")
			return nil, nil
		}
		m, err := NewGeminiModel(ctx, cfg.API.GeminiKey, cfg.API.GeminiModel)
		if err != nil {
			logger.Warn("gemini client unavailable, model stage disabled", "error", err)
			return nil, nil
		}
		return wrapRemote(ctx, cfg, string(ProviderGemini), m, logger), nil
	default:
		return nil, fmt.Errorf("unknown classifier model %q", cfg.Classifier.Model)
	}
}

func wrapRemote(ctx context.Context, cfg *config.Config, provider string, m classify.Model, logger *slog.Logger) *LimitedModel {
	limiters := chain{NewLocalLimiter(cfg.API.RateLimit)}

	var quota *QuotaLimiter
	if cfg.API.RedisAddr != "" {
		q, err := NewQuotaLimiter(ctx, cfg.API.RedisAddr, provider, cfg.API.QuotaRPM, cfg.API.QuotaRPD)
		if err != nil {
			logger.Warn("shared quota unavailable, using local rate limit only", "error", err)
		} else {
			quota = q
			limiters = append(limiters, q)
		}
	}

	logger.Debug("remote model initialized", "model", m.Name(), "rate_limit", cfg.API.RateLimit)
	return &LimitedModel{
		inner:   m,
		limiter: limiters,
		timeout: cfg.API.Timeout,
		quota:   quota,
	}
}

// LimitedModel throttles and time-boxes calls to a remote model
type LimitedModel struct {
	inner   classify.Model
	limiter Limiter
	timeout time.Duration
	quota   *QuotaLimiter
}

// NewLimitedModel wraps m with a limiter and a per-call timeout
func NewLimitedModel(m classify.Model, limiter Limiter, timeout time.Duration) *LimitedModel {
	return &LimitedModel{inner: m, limiter: limiter, timeout: timeout}
}

// Name implements classify.Model
func (l *LimitedModel) Name() string {
	return l.inner.Name()
}

// Predict implements classify.Model
func (l *LimitedModel) Predict(ctx context.Context, message string) (classify.Prediction, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return classify.Prediction{}, err
		}
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return l.inner.Predict(ctx, message)
}

// Close releases the shared quota connection, if any
func (l *LimitedModel) Close() error {
	if l.quota != nil {
		return l.quota.Close()
	}
	return nil
}
