package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	linearModelFile  = "model.json"
	labelMappingFile = "label_mapping.json"
)

// tokenPattern matches the word tokens the exported vectorizer was trained on
var tokenPattern = regexp.MustCompile(`\b\w[\w\-.]+\b`)

// linearModelParams is the on-disk export of a TF-IDF + logistic regression
// pipeline
type linearModelParams struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Coef        [][]float64    `json:"coef"`
	Intercept   []float64      `json:"intercept"`
	SublinearTF bool           `json:"sublinear_tf"`
	NgramRange  [2]int         `json:"ngram_range"`
}

// LinearModel is a local TF-IDF + logistic regression classifier
type LinearModel struct {
	params linearModelParams
	labels []string // class index -> label
}

// LoadLinearModel reads model.json and label_mapping.json from dir
func LoadLinearModel(dir string) (*LinearModel, error) {
	var params linearModelParams
	if err := readJSON(filepath.Join(dir, linearModelFile), &params); err != nil {
		return nil, err
	}

	var mapping map[string]string
	if err := readJSON(filepath.Join(dir, labelMappingFile), &mapping); err != nil {
		return nil, err
	}
	labels, err := orderedLabels(mapping)
	if err != nil {
		return nil, err
	}

	if params.NgramRange == [2]int{} {
		params.NgramRange = [2]int{1, 1}
	}
	if err := validateParams(params, len(labels)); err != nil {
		return nil, fmt.Errorf("invalid model in %s: %w", dir, err)
	}
	return &LinearModel{params: params, labels: labels}, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// orderedLabels turns {"0":"fix","1":"feat"} into a dense index
func orderedLabels(mapping map[string]string) ([]string, error) {
	labels := make([]string, len(mapping))
	for k, v := range mapping {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(mapping) {
			return nil, fmt.Errorf("label mapping key %q is not a class index", k)
		}
		labels[i] = v
	}
	for i, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("label mapping has no entry for class %d", i)
		}
	}
	return labels, nil
}

func validateParams(params linearModelParams, classes int) error {
	if classes < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", classes)
	}
	rows := len(params.Coef)
	// binary logistic regression exports a single coefficient row
	if rows != classes && !(classes == 2 && rows == 1) {
		return fmt.Errorf("coef has %d rows for %d classes", rows, classes)
	}
	if len(params.Intercept) != rows {
		return fmt.Errorf("intercept has %d entries for %d rows", len(params.Intercept), rows)
	}
	for _, row := range params.Coef {
		if len(row) != len(params.IDF) {
			return fmt.Errorf("coef row width %d does not match idf length %d", len(row), len(params.IDF))
		}
	}
	for term, col := range params.Vocabulary {
		if col < 0 || col >= len(params.IDF) {
			return fmt.Errorf("vocabulary term %q maps outside the feature space", term)
		}
	}
	if params.NgramRange[0] < 1 || params.NgramRange[1] < params.NgramRange[0] {
		return fmt.Errorf("bad ngram range %v", params.NgramRange)
	}
	return nil
}

// Name implements Model
func (m *LinearModel) Name() string {
	return "local-tfidf-logreg"
}

// Predict implements Model
func (m *LinearModel) Predict(_ context.Context, message string) (Prediction, error) {
	features := m.vectorize(message)
	if len(features) == 0 {
		return Prediction{}, fmt.Errorf("message has no known terms")
	}

	probs := m.probabilities(features)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return Prediction{Label: m.labels[best], Confidence: probs[best]}, nil
}

// vectorize returns the L2-normalized sparse tf-idf vector of message
func (m *LinearModel) vectorize(message string) map[int]float64 {
	tokens := tokenPattern.FindAllString(strings.ToLower(message), -1)

	counts := make(map[int]float64)
	for n := m.params.NgramRange[0]; n <= m.params.NgramRange[1]; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if col, ok := m.params.Vocabulary[term]; ok {
				counts[col]++
			}
		}
	}

	var norm float64
	for col, tf := range counts {
		if m.params.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		v := tf * m.params.IDF[col]
		counts[col] = v
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for col := range counts {
			counts[col] /= norm
		}
	}
	return counts
}

func (m *LinearModel) probabilities(features map[int]float64) []float64 {
	scores := make([]float64, len(m.params.Coef))
	for k, row := range m.params.Coef {
		s := m.params.Intercept[k]
		for col, v := range features {
			s += row[col] * v
		}
		scores[k] = s
	}

	if len(scores) == 1 {
		p := 1 / (1 + math.Exp(-scores[0]))
		return []float64{1 - p, p}
	}
	return softmax(scores)
}

func softmax(scores []float64) []float64 {
	top := scores[0]
	for _, s := range scores[1:] {
		if s > top {
			top = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - top)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
