package git

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// Backends producing the same commit records
const (
	BackendGoGit = "go-git"
	BackendCLI   = "git-cli"
)

// WalkOptions bounds and tunes a history walk
type WalkOptions struct {
	Range    temporal.Range
	Excluder *Excluder
	Workers  int        // parallel diff-stat workers; <1 means NumCPU
	Memo     *StatStore // optional, go-git backend only
	Backend  string     // BackendGoGit (default) or BackendCLI
}

// Walk returns every commit reachable from HEAD whose committer time lies in
// the range, newest first (ties broken by hash). File stats are computed
// against the first parent; root commits diff against the empty tree.
func (r *Repository) Walk(ctx context.Context, opts WalkOptions) ([]temporal.Commit, error) {
	if opts.Backend == BackendCLI {
		return r.walkCLI(ctx, opts)
	}

	head, err := r.headHash()
	if err != nil {
		return nil, err
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("walking history: %w", err)
	}
	defer iter.Close()

	var objects []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ts := c.Committer.When.Unix()
		if opts.Range.Until != nil && ts >= *opts.Range.Until {
			return nil
		}
		// committer-time order: everything after this is older still
		if opts.Range.Since != nil && ts < *opts.Range.Since {
			return storer.ErrStop
		}
		objects = append(objects, c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(objects, func(i, j int) bool {
		return newer(objects[i].Committer.When.Unix(), objects[j].Committer.When.Unix(),
			objects[i].Hash.String(), objects[j].Hash.String())
	})

	commits := make([]temporal.Commit, len(objects))
	fresh := make(map[string][]temporal.FileChange)
	var freshMu sync.Mutex

	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range objects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			id := c.Hash.String()
			changes, ok := opts.Memo.lookup(id)
			if !ok {
				var derr error
				changes, derr = fileChanges(gctx, c)
				if derr != nil {
					return fmt.Errorf("diff stats for %s: %w", id[:7], derr)
				}
				freshMu.Lock()
				fresh[id] = changes
				freshMu.Unlock()
			}

			commits[i] = r.toCommit(c, opts.Excluder.Filter(changes))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	if opts.Memo != nil {
		if err := opts.Memo.PutAll(fresh); err != nil {
			r.logger.Debug("diff-stat memo write failed", "error", err)
		}
	}

	r.logger.Debug("history walked",
		"commits", len(commits),
		"computed", len(fresh),
		"memoized", len(commits)-len(fresh),
	)
	return commits, nil
}

// newer orders commits newest first, ties by hash
func newer(ti, tj int64, idi, idj string) bool {
	if ti != tj {
		return ti > tj
	}
	return idi < idj
}

func (s *StatStore) lookup(id string) ([]temporal.FileChange, bool) {
	if s == nil {
		return nil, false
	}
	return s.Get(id)
}

func (r *Repository) toCommit(c *object.Commit, changes []temporal.FileChange) temporal.Commit {
	parents := make([]string, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = p.String()
	}

	name, email := r.mailmap.Resolve(c.Author.Name, c.Author.Email)
	return temporal.Commit{
		ID:        c.Hash.String(),
		ParentIDs: parents,
		Author:    name,
		Email:     email,
		Timestamp: c.Committer.When.UTC(),
		Message:   c.Message,
		Files:     changes,
	}
}

// fileChanges diffs a commit against its first parent without rename
// detection, so a rename shows up as a deletion plus an addition.
func fileChanges(ctx context.Context, c *object.Commit) ([]temporal.FileChange, error) {
	toTree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}

	fromTree := &object.Tree{}
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("getting parent: %w", err)
		}
		if fromTree, err = parent.Tree(); err != nil {
			return nil, fmt.Errorf("getting parent tree: %w", err)
		}
	}

	changes, err := fromTree.DiffContext(ctx, toTree)
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing patch: %w", err)
	}

	stats := patch.Stats()
	out := make([]temporal.FileChange, 0, len(stats))
	for _, s := range stats {
		out = append(out, temporal.FileChange{
			Path:      s.Name,
			Additions: s.Addition,
			Deletions: s.Deletion,
		})
	}
	return temporal.MergeFileChanges(out), nil
}
