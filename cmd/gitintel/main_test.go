package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitintel/internal/errors"
)

type testRepo struct {
	t   *testing.T
	dir string
	wt  *git.Worktree
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, wt: wt}
}

func (r *testRepo) commit(path, content, message string, when time.Time) {
	r.t.Helper()
	require.NoError(r.t, os.MkdirAll(filepath.Dir(filepath.Join(r.dir, path)), 0o755))
	require.NoError(r.t, os.WriteFile(filepath.Join(r.dir, path), []byte(content), 0o644))
	_, err := r.wt.Add(path)
	require.NoError(r.t, err)
	sig := &object.Signature{Name: "Ada", Email: "ada@example.com", When: when}
	_, err = r.wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(r.t, err)
}

// execute runs the CLI in-process. Flag values persist between runs, so
// every call passes the flags the test depends on.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSignalsQueryUsesCacheUntilHeadMoves(t *testing.T) {
	r := newTestRepo(t)
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	r.commit("src/parser.go", "package src\n", "feat: add parser", base)
	r.commit("src/parser.go", "package src\n\nfunc Parse() {}\n", "fix: parser crash on empty input", base.Add(time.Hour))

	first, err := execute(t, "signals", "--repo", r.dir, "--format", "json", "--limit", "10", "--since", "", "--until", "")
	require.NoError(t, err)

	var doc struct {
		Signals []struct {
			Kind     string   `json:"kind"`
			Severity float64  `json:"severity"`
			Files    []string `json:"files"`
		} `json:"signals"`
		TotalCommitsAnalyzed int `json:"total_commits_analyzed"`
	}
	require.NoError(t, json.Unmarshal([]byte(first), &doc))
	require.Len(t, doc.Signals, 1)
	assert.Equal(t, "fix_after_feat", doc.Signals[0].Kind)
	assert.InDelta(t, 0.2, doc.Signals[0].Severity, 1e-9)
	assert.Equal(t, []string{"src/parser.go"}, doc.Signals[0].Files)
	assert.Equal(t, 2, doc.TotalCommitsAnalyzed)

	entries, err := filepath.Glob(filepath.Join(r.dir, ".git", "git-intel-cache", "signals-*.json"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	second, err := execute(t, "signals", "--repo", r.dir, "--format", "json", "--limit", "10", "--since", "", "--until", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	r.commit("README.md", "# parser\n", "docs: describe parser", base.Add(2*time.Hour))
	third, err := execute(t, "signals", "--repo", r.dir, "--format", "json", "--limit", "10", "--since", "", "--until", "")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(third), &doc))
	assert.Equal(t, 3, doc.TotalCommitsAnalyzed)

	ledger, err := execute(t, "ledger", "--repo", r.dir, "--format", "json", "--limit", "10", "--since", "", "--until", "")
	require.NoError(t, err)
	var runs struct {
		Runs []struct {
			Subcommand  string `json:"subcommand"`
			CacheHit    bool   `json:"cache_hit"`
			SignalCount int    `json:"signal_count"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(ledger), &runs))
	require.Len(t, runs.Runs, 3)
	hits := 0
	for _, run := range runs.Runs {
		assert.Equal(t, "signals", run.Subcommand)
		assert.Equal(t, 1, run.SignalCount)
		if run.CacheHit {
			hits++
		}
	}
	assert.Equal(t, 1, hits)
}

func TestQueryRejectsBadInput(t *testing.T) {
	r := newTestRepo(t)
	r.commit("a.txt", "a\n", "chore: init", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name  string
		args  []string
		param string
	}{
		{"bad since", []string{"metrics", "--repo", r.dir, "--since", "yesterday-ish", "--until", "", "--format", "json"}, "since"},
		{"inverted range", []string{"churn", "--repo", r.dir, "--since", "2024-02-01", "--until", "2024-01-01", "--format", "json"}, "since"},
		{"not a repository", []string{"churn", "--repo", t.TempDir(), "--since", "", "--until", "", "--format", "json"}, "repo"},
		{"bad format", []string{"churn", "--repo", r.dir, "--since", "", "--until", "", "--format", "xml"}, "format"},
		{"no files", []string{"lifecycle", "--repo", r.dir, "--since", "", "--until", "", "--format", "json"}, "files"},
		{"zero windows", []string{"trends", "--repo", r.dir, "--format", "json", "--windows", "0"}, "windows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			param, ok := errors.Param(err)
			require.True(t, ok, err.Error())
			assert.Equal(t, tt.param, param)
		})
	}
}

func TestClassifyCommand(t *testing.T) {
	out, err := execute(t, "classify", "--format", "json", "--parents", "1", "--model", "none", "fix(api): handle nil body")
	require.NoError(t, err)
	var got classification
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "fix", string(got.Type))
	assert.Equal(t, "conventional", string(got.Stage))

	out, err = execute(t, "classify", "--format", "json", "--parents", "2", "--model", "none", "fix: looks like a fix")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "merge", string(got.Type))
}

func TestLedgerSignals(t *testing.T) {
	payload := []byte(`{"signals":[{"kind":"fix_after_refactor","severity":0.5,"message":"m","commits":["aaaaaaa","bbbbbbb"],"files":["x.go","y.go"]},{"kind":"bad","commits":["only-one"]}],"total_commits_analyzed":4}`)
	signals := ledgerSignals(payload)
	require.Len(t, signals, 1)
	assert.Equal(t, "fix_after_refactor", signals[0].Kind)
	assert.Equal(t, "aaaaaaa", signals[0].TriggerCommit)
	assert.Equal(t, "bbbbbbb", signals[0].FixCommit)
	assert.Equal(t, []string{"x.go", "y.go"}, signals[0].FileList())

	assert.Empty(t, ledgerSignals([]byte(`{"files":[]}`)))
	assert.Nil(t, ledgerSignals([]byte(`not json`)))
}

func TestSignalsWithUnusableModelFallsBackToRules(t *testing.T) {
	t.Cleanup(func() {
		flags := rootCmd.PersistentFlags()
		require.NoError(t, flags.Set("model", "none"))
		require.NoError(t, flags.Set("model-dir", ""))
	})

	r := newTestRepo(t)
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	r.commit("log.go", "package log\n", "feat: structured logger", base)
	r.commit("log.go", "package log\n\nfunc Init() {}\n", "fix: logger drops fields", base.Add(time.Hour))

	common := []string{"--repo", r.dir, "--format", "json", "--limit", "10", "--since", "", "--until", ""}
	rules, err := execute(t, append([]string{"signals", "--model", "none"}, common...)...)
	require.NoError(t, err)

	degraded, err := execute(t, append([]string{"signals", "--model", "local", "--model-dir", t.TempDir()}, common...)...)
	require.NoError(t, err)
	assert.JSONEq(t, rules, degraded)

	var doc struct {
		Signals []json.RawMessage `json:"signals"`
	}
	require.NoError(t, json.Unmarshal([]byte(degraded), &doc))
	assert.Len(t, doc.Signals, 1)
}

func TestExplicitConfigMustLoad(t *testing.T) {
	t.Cleanup(func() {
		require.NoError(t, rootCmd.PersistentFlags().Set("config", ""))
	})

	r := newTestRepo(t)
	r.commit("a.txt", "a\n", "chore: init", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	broken := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("query: [unclosed\n"), 0o644))

	for _, path := range []string{broken, filepath.Join(t.TempDir(), "missing.yaml")} {
		_, err := execute(t, "churn", "--config", path, "--repo", r.dir, "--format", "json", "--since", "", "--until", "")
		require.Error(t, err)
		param, ok := errors.Param(err)
		require.True(t, ok, err.Error())
		assert.Equal(t, "config", param)
	}
}

func TestTrendsAnchor(t *testing.T) {
	mid := time.Date(2024, 6, 3, 13, 25, 7, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC), trendsAnchor(mid))
	assert.Equal(t, trendsAnchor(mid), trendsAnchor(mid.Add(30*time.Minute)))

	onTheHour := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC), trendsAnchor(onTheHour))

	local := time.Date(2024, 6, 3, 23, 40, 0, 0, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, time.Date(2024, 6, 3, 22, 0, 0, 0, time.UTC), trendsAnchor(local))
}

func TestTrendsIncludesCommitsUpToNow(t *testing.T) {
	r := newTestRepo(t)
	r.commit("a.go", "package a\n", "feat: a", time.Now().Add(-time.Minute))

	out, err := execute(t, "trends", "--repo", r.dir, "--format", "json", "--windows", "2", "--window-days", "7", "--top-churn", "3")
	require.NoError(t, err)
	var doc struct {
		Windows []struct {
			TotalCommits int `json:"total_commits"`
		} `json:"windows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Windows, 2)
	assert.Equal(t, 1, doc.Windows[0].TotalCommits)

	again, err := execute(t, "trends", "--repo", r.dir, "--format", "json", "--windows", "2", "--window-days", "7", "--top-churn", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}
