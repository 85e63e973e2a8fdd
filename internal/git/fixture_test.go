package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// fixture builds small repositories with fixed identities and timestamps
type fixture struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &fixture{t: t, dir: dir, repo: repo, wt: wt}
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// at returns epoch plus the given number of hours
func at(hours int) time.Time {
	return epoch.Add(time.Duration(hours) * time.Hour)
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	full := filepath.Join(f.dir, path)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(f.t, os.WriteFile(full, []byte(content), 0o644))
	_, err := f.wt.Add(path)
	require.NoError(f.t, err)
}

func (f *fixture) remove(path string) {
	f.t.Helper()
	_, err := f.wt.Remove(path)
	require.NoError(f.t, err)
}

func (f *fixture) commitAs(name, email, message string, when time.Time) string {
	f.t.Helper()
	sig := &object.Signature{Name: name, Email: email, When: when}
	hash, err := f.wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	require.NoError(f.t, err)
	return hash.String()
}

func (f *fixture) commit(message string, when time.Time) string {
	return f.commitAs("Ada", "ada@example.com", message, when)
}

func (f *fixture) open() *Repository {
	f.t.Helper()
	r, err := Open(f.dir)
	require.NoError(f.t, err)
	return r
}
