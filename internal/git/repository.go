// Package git is the commit source: it opens a repository with go-git and
// turns its history into temporal.Commit records.
package git

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/rohankatakam/gitintel/internal/errors"
)

// Repository wraps a go-git repository
type Repository struct {
	repo    *git.Repository
	root    string
	gitDir  string
	mailmap *Mailmap
	logger  *slog.Logger
}

// ErrEmptyRepository is returned when HEAD does not point at a commit yet
var ErrEmptyRepository = stderrors.New("repository has no commits")

// Open discovers the repository containing path, which may be any
// subdirectory of the worktree.
func Open(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.InvalidParam("repo", "invalid --repo path %q: %v", path, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.InvalidParam("repo", "not a git repository: %s", abs)
		}
		return nil, errors.InvalidParam("repo", "opening repository %s: %v", abs, err)
	}

	r := &Repository{
		repo:   repo,
		logger: slog.Default().With("component", "git"),
	}

	if fs, ok := repo.Storer.(*filesystem.Storage); ok {
		r.gitDir = fs.Filesystem().Root()
	}
	if wt, err := repo.Worktree(); err == nil {
		r.root = wt.Filesystem.Root()
	} else {
		// bare repository
		r.root = r.gitDir
	}
	if r.gitDir == "" {
		r.gitDir = filepath.Join(r.root, ".git")
	}

	r.mailmap = LoadMailmap(filepath.Join(r.root, ".mailmap"))
	r.logger.Debug("repository opened", "root", r.root, "git_dir", r.gitDir, "mailmap_entries", r.mailmap.Len())
	return r, nil
}

// Root returns the worktree root (the git directory for bare repositories)
func (r *Repository) Root() string {
	return r.root
}

// GitDir returns the path of the .git directory
func (r *Repository) GitDir() string {
	return r.gitDir
}

// Head returns the full hash of the commit HEAD points at
func (r *Repository) Head() (string, error) {
	hash, err := r.headHash()
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

func (r *Repository) headHash() (plumbing.Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, ErrEmptyRepository
		}
		return plumbing.ZeroHash, fmt.Errorf("resolving HEAD: %w", err)
	}
	return ref.Hash(), nil
}
