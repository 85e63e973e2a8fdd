// Package classify assigns each commit a single type label through an ordered
// rule cascade with an optional statistical fallback.
package classify

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// Stage identifies which step of the cascade produced a label.
// It is diagnostic only.
type Stage string

const (
	StageMerge           Stage = "merge"
	StageRevert          Stage = "revert"
	StageRelease         Stage = "release"
	StageConventional    Stage = "conventional"
	StageNaturalLanguage Stage = "natural_language"
	StageModel           Stage = "model"
	StageDefault         Stage = "default"
)

// Result is the outcome of classifying one commit
type Result struct {
	CommitID string              `json:"commit_id"`
	Type     temporal.CommitType `json:"type"`
	Stage    Stage               `json:"-"`
}

// input is the normalized view every stage works on
type input struct {
	message string // full message text
	lower   string // lowercased first line
	parents int
}

type stageFunc func(ctx context.Context, in input) (temporal.CommitType, bool)

type stage struct {
	name  Stage
	match stageFunc
}

// conventionalTypes is checked in order; a prefix must be followed by a delimiter
var conventionalTypes = []temporal.CommitType{
	temporal.TypeFeat,
	temporal.TypeFix,
	temporal.TypeChore,
	temporal.TypeDocs,
	temporal.TypeRefactor,
	temporal.TypeTest,
	temporal.TypeStyle,
	temporal.TypePerf,
	temporal.TypeCI,
	temporal.TypeBuild,
}

// Classifier runs the cascade. Model predictions are memoized per message, so
// repeated messages ("wip", "update") cost one model call per Classifier.
type Classifier struct {
	stages []stage
	model  *modelStage
	logger *slog.Logger
}

// Option configures a Classifier
type Option func(*Classifier)

// WithModel attaches a statistical model consulted after the rule stages.
// A nil model leaves the cascade rule-based.
func WithModel(m Model, threshold float64) Option {
	return func(c *Classifier) {
		if m == nil {
			return
		}
		c.model = &modelStage{
			model:     m,
			threshold: threshold,
			memo:      gocache.New(gocache.NoExpiration, 0),
			logger:    c.logger,
		}
	}
}

// New builds the cascade
func New(opts ...Option) *Classifier {
	c := &Classifier{
		logger: slog.Default().With("component", "classify"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.stages = []stage{
		{StageMerge, matchMerge},
		{StageRevert, matchRevert},
		{StageRelease, matchRelease},
		{StageConventional, matchConventional},
		{StageNaturalLanguage, matchNaturalLanguage},
	}
	if c.model != nil {
		c.stages = append(c.stages, stage{StageModel, c.model.match})
	}
	return c
}

// ModelName reports the attached model, or "" for rule-only classification
func (c *Classifier) ModelName() string {
	if c.model == nil {
		return ""
	}
	return c.model.model.Name()
}

// Classify labels one commit
func (c *Classifier) Classify(ctx context.Context, commit temporal.Commit) Result {
	t, st := c.run(ctx, commit.Message, len(commit.ParentIDs))
	return Result{CommitID: commit.ID, Type: t, Stage: st}
}

// ClassifyMessage labels a bare message with the given parent count
func (c *Classifier) ClassifyMessage(ctx context.Context, message string, parents int) Result {
	t, st := c.run(ctx, message, parents)
	return Result{Type: t, Stage: st}
}

// ClassifyAll sets Type on every commit in place and returns how many commits
// each stage labelled
func (c *Classifier) ClassifyAll(ctx context.Context, commits []temporal.Commit) map[Stage]int {
	counts := make(map[Stage]int)
	for i := range commits {
		r := c.Classify(ctx, commits[i])
		commits[i].Type = r.Type
		counts[r.Stage]++
	}
	if n := counts[StageModel]; n > 0 {
		c.logger.Debug("model resolved commits", "model", c.ModelName(), "count", n)
	}
	return counts
}

func (c *Classifier) run(ctx context.Context, message string, parents int) (temporal.CommitType, Stage) {
	in := input{
		message: message,
		lower:   strings.ToLower(strings.TrimSpace(temporal.FirstLine(message))),
		parents: parents,
	}
	for _, s := range c.stages {
		if t, ok := s.match(ctx, in); ok {
			return t, s.name
		}
	}
	return temporal.TypeOther, StageDefault
}

func matchMerge(_ context.Context, in input) (temporal.CommitType, bool) {
	return temporal.TypeMerge, in.parents >= 2
}

func matchRevert(_ context.Context, in input) (temporal.CommitType, bool) {
	ok := strings.HasPrefix(in.lower, `revert "`) ||
		strings.HasPrefix(in.lower, "revert:") ||
		strings.HasPrefix(in.lower, "revert(")
	return temporal.TypeRevert, ok
}

func matchRelease(_ context.Context, in input) (temporal.CommitType, bool) {
	if len(in.lower) > 1 && in.lower[0] == 'v' && in.lower[1] >= '0' && in.lower[1] <= '9' {
		return temporal.TypeRelease, true
	}
	ok := strings.Contains(in.lower, "release") || strings.Contains(in.lower, "bump version")
	return temporal.TypeRelease, ok
}

func matchConventional(_ context.Context, in input) (temporal.CommitType, bool) {
	for _, t := range conventionalTypes {
		prefix := string(t)
		if !strings.HasPrefix(in.lower, prefix) {
			continue
		}
		if delimited(in.lower[len(prefix):]) {
			return t, true
		}
	}
	return temporal.TypeUnset, false
}

// delimited reports whether rest starts with ':', '(', '!', whitespace or is empty
func delimited(rest string) bool {
	if rest == "" {
		return true
	}
	switch r := rune(rest[0]); {
	case r == ':' || r == '(' || r == '!':
		return true
	default:
		return unicode.IsSpace(r)
	}
}

var (
	fixLeads     = []string{"fixed ", "fixed:", "bugfix", "bug fix", "hotfix", "hot fix"}
	featLeads    = []string{"added ", "added:"}
	closingWords = []string{"fixes #", "fixed #", "closes #"}
)

func matchNaturalLanguage(_ context.Context, in input) (temporal.CommitType, bool) {
	for _, p := range fixLeads {
		if strings.HasPrefix(in.lower, p) {
			return temporal.TypeFix, true
		}
	}
	for _, p := range featLeads {
		if strings.HasPrefix(in.lower, p) {
			return temporal.TypeFeat, true
		}
	}
	full := strings.ToLower(in.message)
	for _, kw := range closingWords {
		if strings.Contains(full, kw) {
			return temporal.TypeFix, true
		}
	}
	return temporal.TypeUnset, false
}
