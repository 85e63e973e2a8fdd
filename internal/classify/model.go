package classify

import (
	"context"
	"log/slog"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// DefaultThreshold is the minimum confidence a model label needs to be used
const DefaultThreshold = 0.5

// Prediction is a model's best label for a message
type Prediction struct {
	Label      string
	Confidence float64
}

// Model is the contract a statistical classifier satisfies. Implementations may
// be local or remote; an error means "no opinion" and never fails a query.
type Model interface {
	Predict(ctx context.Context, message string) (Prediction, error)
	Name() string
}

// modelStage adapts a Model into a cascade stage
type modelStage struct {
	model     Model
	threshold float64
	memo      *gocache.Cache // message -> temporal.CommitType
	logger    *slog.Logger
}

func (m *modelStage) match(ctx context.Context, in input) (temporal.CommitType, bool) {
	if in.lower == "" {
		return temporal.TypeUnset, false
	}
	if cached, ok := m.memo.Get(in.message); ok {
		t := cached.(temporal.CommitType)
		return t, t != temporal.TypeUnset
	}

	t := m.predict(ctx, in.message)
	m.memo.Set(in.message, t, gocache.NoExpiration)
	return t, t != temporal.TypeUnset
}

func (m *modelStage) predict(ctx context.Context, message string) temporal.CommitType {
	p, err := m.model.Predict(ctx, message)
	if err != nil {
		m.logger.Debug("model prediction skipped", "model", m.model.Name(), "error", err)
		return temporal.TypeUnset
	}
	if p.Confidence <= m.threshold {
		return temporal.TypeUnset
	}
	t, ok := temporal.ParseCommitType(p.Label)
	if !ok || t == temporal.TypeMerge {
		// merge depends on parent count, which a message model cannot see
		m.logger.Debug("model label rejected", "model", m.model.Name(), "label", p.Label)
		return temporal.TypeUnset
	}
	return t
}

// Labels returns the label strings a model may emit
func Labels() []string {
	labels := make([]string, 0, len(temporal.AllTypes))
	for _, t := range temporal.AllTypes {
		if t == temporal.TypeMerge {
			continue
		}
		labels = append(labels, string(t))
	}
	return labels
}
