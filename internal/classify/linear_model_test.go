package classify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, model, mapping string) string {
	t.Helper()
	dir := t.TempDir()
	if model != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, linearModelFile), []byte(model), 0644))
	}
	if mapping != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, labelMappingFile), []byte(mapping), 0644))
	}
	return dir
}

const threeClassModel = `{
  "vocabulary": {"crash": 0, "endpoint": 1, "guide": 2, "add endpoint": 3},
  "idf": [1.0, 1.0, 1.0, 2.0],
  "coef": [[5, 0, 0, 0], [0, 3, 0, 3], [0, 0, 5, 0]],
  "intercept": [0, 0, 0],
  "sublinear_tf": true,
  "ngram_range": [1, 2]
}`

func TestLinearModelPredict(t *testing.T) {
	dir := writeModel(t, threeClassModel, `{"0": "fix", "1": "feat", "2": "docs"}`)
	m, err := LoadLinearModel(dir)
	require.NoError(t, err)

	p, err := m.Predict(context.Background(), "Repair the crash")
	require.NoError(t, err)
	assert.Equal(t, "fix", p.Label)
	assert.InDelta(t, 0.9867, p.Confidence, 0.001)

	p, err = m.Predict(context.Background(), "Add endpoint for users")
	require.NoError(t, err)
	assert.Equal(t, "feat", p.Label)
	assert.Greater(t, p.Confidence, 0.9)

	_, err = m.Predict(context.Background(), "zzz qqq")
	assert.Error(t, err, "unknown vocabulary gives no opinion")
}

func TestLinearModelBinary(t *testing.T) {
	dir := writeModel(t,
		`{"vocabulary": {"crash": 0}, "idf": [1], "coef": [[2.0]], "intercept": [0]}`,
		`{"0": "other", "1": "fix"}`)
	m, err := LoadLinearModel(dir)
	require.NoError(t, err)

	p, err := m.Predict(context.Background(), "crash")
	require.NoError(t, err)
	assert.Equal(t, "fix", p.Label)
	assert.InDelta(t, 0.8808, p.Confidence, 0.001)
}

func TestLinearModelLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		mapping string
	}{
		{"missing model", "", `{"0": "fix", "1": "feat"}`},
		{"missing mapping", threeClassModel, ""},
		{"corrupt model", "{not json", `{"0": "fix", "1": "feat"}`},
		{"class count mismatch", threeClassModel, `{"0": "fix", "1": "feat"}`},
		{"sparse mapping", threeClassModel, `{"0": "fix", "1": "feat", "5": "docs"}`},
		{"vocabulary out of range", `{"vocabulary": {"x": 4}, "idf": [1], "coef": [[1]], "intercept": [0]}`, `{"0": "other", "1": "fix"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLinearModel(writeModel(t, tt.model, tt.mapping))
			assert.Error(t, err)
		})
	}
}

func TestLinearModelInCascade(t *testing.T) {
	m, err := LoadLinearModel(writeModel(t, threeClassModel, `{"0": "fix", "1": "feat", "2": "docs"}`))
	require.NoError(t, err)

	c := New(WithModel(m, DefaultThreshold))
	assert.Equal(t, "local-tfidf-logreg", c.ModelName())

	r := c.ClassifyMessage(context.Background(), "Rewrite the guide", 1)
	assert.Equal(t, StageModel, r.Stage)
	assert.EqualValues(t, "docs", r.Type)
}
