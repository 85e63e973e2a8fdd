package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rohankatakam/gitintel/internal/classify"
	"google.golang.org/genai"
)

// GeminiModel classifies commit messages with Gemini's JSON mode. The model
// reports its own confidence alongside the label.
type GeminiModel struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

type geminiAnswer struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// NewGeminiModel creates a model backed by the Gemini API
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	return newGeminiModel(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newGeminiModel(ctx context.Context, clientConfig *genai.ClientConfig, model string) (*GeminiModel, error) {
	if clientConfig.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	logger := slog.Default().With("component", "llm", "provider", "gemini", "model", model)
	logger.Debug("gemini client initialized")

	return &GeminiModel{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Name implements classify.Model
func (m *GeminiModel) Name() string {
	return "gemini:" + m.model
}

// Predict implements classify.Model
func (m *GeminiModel) Predict(ctx context.Context, message string) (classify.Prediction, error) {
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.Text(systemPrompt(true))[0],
		Temperature:       ptrFloat32(0),
		ResponseMIMEType:  "application/json",
		MaxOutputTokens:   64,
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(userPrompt(message)), genConfig)
	if err != nil {
		return classify.Prediction{}, fmt.Errorf("gemini json completion failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return classify.Prediction{}, fmt.Errorf("gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return classify.Prediction{}, fmt.Errorf("gemini returned no content parts")
	}

	var answer geminiAnswer
	if err := json.Unmarshal([]byte(candidate.Content.Parts[0].Text), &answer); err != nil {
		return classify.Prediction{}, fmt.Errorf("gemini returned invalid JSON: %w", err)
	}

	label := normalizeLabel(answer.Label)
	if label == "" {
		return classify.Prediction{}, fmt.Errorf("gemini returned an empty label")
	}
	if answer.Confidence < 0 || answer.Confidence > 1 {
		return classify.Prediction{}, fmt.Errorf("gemini confidence out of range: %v", answer.Confidence)
	}

	m.logger.Debug("gemini prediction", "label", label, "confidence", answer.Confidence)
	return classify.Prediction{Label: label, Confidence: answer.Confidence}, nil
}

func ptrFloat32(f float64) *float32 {
	f32 := float32(f)
	return &f32
}
