package llm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/rohankatakam/gitintel/internal/classify"
	"github.com/sashabaranov/go-openai"
)

// OpenAIModel classifies commit messages with a chat completion. Confidence is
// the probability of the label's first token, read from the logprobs.
type OpenAIModel struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIModel creates a model backed by the OpenAI chat API
func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	return newOpenAIModel(openai.NewClient(apiKey), model)
}

func newOpenAIModel(client *openai.Client, model string) *OpenAIModel {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIModel{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "llm", "provider", "openai"),
	}
}

// Name implements classify.Model
func (m *OpenAIModel) Name() string {
	return "openai:" + m.model
}

// Predict implements classify.Model
func (m *OpenAIModel) Predict(ctx context.Context, message string) (classify.Prediction, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(false),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt(message),
			},
		},
		Temperature: 0,
		MaxTokens:   5,
		LogProbs:    true,
	})
	if err != nil {
		return classify.Prediction{}, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return classify.Prediction{}, fmt.Errorf("openai returned no choices")
	}

	choice := resp.Choices[0]
	label := normalizeLabel(choice.Message.Content)
	if label == "" {
		return classify.Prediction{}, fmt.Errorf("openai returned an empty label")
	}

	confidence, err := firstTokenProbability(choice.LogProbs)
	if err != nil {
		return classify.Prediction{}, err
	}

	m.logger.Debug("openai prediction",
		"label", label,
		"confidence", confidence,
		"tokens_used", resp.Usage.TotalTokens,
	)

	return classify.Prediction{Label: label, Confidence: confidence}, nil
}

// firstTokenProbability skips leading whitespace tokens and returns exp(logprob)
// of the first token that carries text.
func firstTokenProbability(lp *openai.LogProbs) (float64, error) {
	if lp == nil || len(lp.Content) == 0 {
		return 0, fmt.Errorf("openai response has no logprobs")
	}
	for _, tok := range lp.Content {
		if strings.TrimSpace(tok.Token) == "" {
			continue
		}
		return math.Exp(tok.LogProb), nil
	}
	return 0, fmt.Errorf("openai response has only whitespace tokens")
}
