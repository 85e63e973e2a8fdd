package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/cache"
	"github.com/rohankatakam/gitintel/internal/classify"
	"github.com/rohankatakam/gitintel/internal/config"
	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/git"
	"github.com/rohankatakam/gitintel/internal/llm"
	"github.com/rohankatakam/gitintel/internal/output"
	"github.com/rohankatakam/gitintel/internal/storage"
	"github.com/rohankatakam/gitintel/internal/temporal"
)

const (
	memoFile   = "diffstats.db"
	ledgerFile = "ledger.db"
)

// session holds what one invocation opens against the repository
type session struct {
	repo     *git.Repository
	head     string // empty for a repository without commits
	rng      temporal.Range
	cacheDir string
	cache    *cache.Manager // nil when the cache is disabled
	format   output.Format
}

// openSession resolves the repository, HEAD, the date range and the cache
func openSession() (*session, error) {
	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rng, err := temporal.ParseRange(sinceFlag, untilFlag, now)
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(repoPath)
	if err != nil {
		return nil, err
	}

	s := &session{repo: repo, rng: rng, format: format}

	s.head, err = repo.Head()
	if err != nil {
		if !stderrors.Is(err, git.ErrEmptyRepository) {
			return nil, errors.ExternalError(err, "failed to resolve HEAD")
		}
		logger.Debug("Repository has no commits, results will be empty")
		s.head = ""
	}

	s.cacheDir = cfg.Cache.Directory
	if s.cacheDir == "" {
		s.cacheDir = cache.DefaultDirectory(repo.GitDir())
	}
	if cfg.Cache.Enabled && s.head != "" {
		s.cache = cache.NewManager(cache.Options{Directory: s.cacheDir, Compress: cfg.Cache.Compress}, logger)
	}
	return s, nil
}

// commits walks the history in range and classifies every commit
func (s *session) commits(ctx context.Context, rng temporal.Range) ([]temporal.Commit, error) {
	if s.head == "" {
		return []temporal.Commit{}, nil
	}

	excluder, err := git.NewExcluder(cfg.History.Exclude)
	if err != nil {
		return nil, err
	}
	opts := git.WalkOptions{
		Range:    rng,
		Excluder: excluder,
		Workers:  cfg.History.Workers,
		Backend:  cfg.History.Backend,
	}
	if cfg.History.DiffMemo && cfg.History.Backend != git.BackendCLI {
		memo, err := git.OpenStatStore(filepath.Join(s.cacheDir, memoFile))
		if err != nil {
			logger.WithError(err).Debug("Diff-stat memo unavailable, computing without it")
		} else {
			defer memo.Close()
			opts.Memo = memo
		}
	}

	start := time.Now()
	commits, err := s.repo.Walk(ctx, opts)
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, errors.ExternalError(err, "failed to walk history")
	}
	logger.WithFields(logrus.Fields{
		"commits":  len(commits),
		"backend":  opts.Backend,
		"duration": time.Since(start),
	}).Debug("History walked")

	classifier, closeModel, err := newClassifier(ctx)
	if err != nil {
		return nil, err
	}
	defer closeModel()

	stages := classifier.ClassifyAll(ctx, commits)
	logger.WithField("stages", stages).Debug("Commits classified")
	return commits, nil
}

// newClassifier builds the cascade with the configured model, if any
func newClassifier(ctx context.Context) (*classify.Classifier, func(), error) {
	resolveAPIKey()
	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return nil, nil, errors.InvalidParam("model", "%v", err)
	}
	closeModel := func() {}
	if c, ok := model.(io.Closer); ok {
		closeModel = func() {
			if err := c.Close(); err != nil {
				logger.WithError(err).Debug("Failed to close model")
			}
		}
	}
	return classify.New(classify.WithModel(model, cfg.Classifier.Threshold)), closeModel, nil
}

// resolveAPIKey fills a missing remote model key from the keychain or the
// credentials file written by configure
func resolveAPIKey() {
	provider, ok := config.ParseProvider(cfg.Classifier.Model)
	if !ok {
		return
	}
	current := cfg.API.OpenAIKey
	if provider == config.ProviderGemini {
		current = cfg.API.GeminiKey
	}
	if current != "" {
		return
	}
	key, err := config.NewCredentialManager().GetAPIKey(provider)
	if err != nil {
		logger.WithError(err).Debug("Failed to read stored API key")
		return
	}
	if provider == config.ProviderGemini {
		cfg.API.GeminiKey = key
	} else {
		cfg.API.OpenAIKey = key
	}
}

// query describes one cacheable result-producing invocation
type query struct {
	name  string
	files []string
	extra []string
	rng   *temporal.Range // overrides the --since/--until range in the key
	run   func(ctx context.Context, s *session) (interface{}, int, error)
}

// runQuery is the pipeline every result-producing subcommand shares:
// probe the cache, compute on a miss, write the cache, record the run,
// then render.
func runQuery(cmd *cobra.Command, q query) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	s, err := openSession()
	if err != nil {
		return err
	}

	rng := s.rng
	if q.rng != nil {
		rng = *q.rng
	}
	extra := append(append([]string{}, q.extra...), classifierKey()...)
	extra = append(extra, historyKey()...)
	key := cache.Key(q.name, rng.Since, rng.Until, q.files, extra...)

	var payload []byte
	hit := false
	if s.cache != nil {
		payload, hit = s.cache.Get(key, s.head)
	}

	analyzed := 0
	if !hit {
		result, n, err := q.run(ctx, s)
		if err != nil {
			return err
		}
		analyzed = n
		payload, err = json.Marshal(result)
		if err != nil {
			return errors.InternalErrorf("failed to encode %s result: %v", q.name, err)
		}
		if s.cache != nil {
			s.cache.Put(key, s.head, payload)
		}
	}

	logger.WithFields(logrus.Fields{
		"subcommand": q.name,
		"key":        key,
		"cache_hit":  hit,
		"duration":   time.Since(start),
	}).Debug("Query complete")

	s.record(ctx, q.name, key, hit, analyzed, time.Since(start), payload)
	return output.Render(s.format, payload, cmd.OutOrStdout())
}

// classifierKey folds the classifier settings into cache keys, since the
// model changes the labels every analysis is built on
func classifierKey() []string {
	model := cfg.Classifier.Model
	if model == "" || model == string(llm.ProviderNone) {
		return nil
	}
	return []string{fmt.Sprintf("model=%s:%s:%g", model, cfg.Classifier.ModelDir, cfg.Classifier.Threshold)}
}

// historyKey folds settings that change which file changes are seen
func historyKey() []string {
	if len(cfg.History.Exclude) == 0 {
		return nil
	}
	return []string{"exclude=" + strings.Join(cfg.History.Exclude, ",")}
}

// limit is the effective --limit
func limit() int {
	return cfg.Query.Limit
}

// openLedger opens the configured run ledger
func (s *session) openLedger() (storage.Store, error) {
	path := cfg.Ledger.Path
	if path == "" {
		path = filepath.Join(s.cacheDir, ledgerFile)
	}
	return storage.Open(storage.Options{Driver: cfg.Ledger.Driver, Path: path, DSN: cfg.Ledger.DSN}, logger)
}

// record appends the run to the ledger. Ledger failures never fail a query.
func (s *session) record(ctx context.Context, name, key string, hit bool, analyzed int, elapsed time.Duration, payload []byte) {
	if !cfg.Ledger.Enabled {
		return
	}
	ledger, err := s.openLedger()
	if err != nil {
		logger.WithError(err).Debug("Run ledger unavailable")
		return
	}
	defer ledger.Close()

	run := &storage.Run{
		Repo:            s.repo.Root(),
		Subcommand:      name,
		CacheKey:        key,
		HeadCommit:      s.head,
		CacheHit:        hit,
		CommitsAnalyzed: analyzed,
		DurationMS:      elapsed.Milliseconds(),
	}
	if err := ledger.RecordRun(ctx, run, ledgerSignals(payload)); err != nil {
		logger.WithError(err).Debug("Failed to record run")
	}
}

// ledgerSignals extracts the signals list of a result document, if it has one
func ledgerSignals(payload []byte) []storage.RunSignal {
	var doc struct {
		Signals []struct {
			Kind     string   `json:"kind"`
			Severity float64  `json:"severity"`
			Commits  []string `json:"commits"`
			Files    []string `json:"files"`
		} `json:"signals"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil
	}

	signals := make([]storage.RunSignal, 0, len(doc.Signals))
	for _, sig := range doc.Signals {
		if len(sig.Commits) != 2 {
			continue
		}
		signals = append(signals, storage.RunSignal{
			Kind:          sig.Kind,
			Severity:      sig.Severity,
			TriggerCommit: sig.Commits[0],
			FixCommit:     sig.Commits[1],
			Files:         strings.Join(sig.Files, "\n"),
		})
	}
	return signals
}

// render writes a document that bypasses the cache
func render(cmd *cobra.Command, v interface{}) error {
	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.InternalErrorf("failed to encode result: %v", err)
	}
	return output.Render(format, payload, cmd.OutOrStdout())
}
