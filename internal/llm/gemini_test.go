package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestGeminiModel(t *testing.T, answer string) *GeminiModel {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": answer}},
					},
					"finishReason": "STOP",
				},
			},
		})
	}))
	t.Cleanup(srv.Close)

	m, err := newGeminiModel(context.Background(), &genai.ClientConfig{
		APIKey:      "gm-test",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL + "/"},
	}, "gemini-2.0-flash")
	require.NoError(t, err)
	return m
}

func TestGeminiModel_Predict(t *testing.T) {
	m := newTestGeminiModel(t, `{"label": "Refactor", "confidence": 0.72}`)

	p, err := m.Predict(context.Background(), "extract parser into its own package")
	require.NoError(t, err)
	assert.Equal(t, "refactor", p.Label)
	assert.InDelta(t, 0.72, p.Confidence, 1e-9)
	assert.Equal(t, "gemini:gemini-2.0-flash", m.Name())
}

func TestGeminiModel_InvalidAnswers(t *testing.T) {
	for _, answer := range []string{
		`not json`,
		`{"label": "", "confidence": 0.9}`,
		`{"label": "fix", "confidence": 1.5}`,
	} {
		m := newTestGeminiModel(t, answer)
		_, err := m.Predict(context.Background(), "x")
		assert.Error(t, err, answer)
	}
}

func TestNewGeminiModel_RequiresKey(t *testing.T) {
	_, err := NewGeminiModel(context.Background(), "", "")
	assert.Error(t, err)
}
