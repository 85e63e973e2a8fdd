package patterns

import (
	"sort"
	"strings"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// ChainCommit is one edit in a multi-edit chain
type ChainCommit struct {
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	Message string `json:"message" yaml:"message"`
}

// MultiEditChain is a file edited repeatedly with substantial churn
type MultiEditChain struct {
	Path       string        `json:"path" yaml:"path"`
	EditCount  int           `json:"edit_count" yaml:"edit_count"`
	TotalChurn int           `json:"total_churn" yaml:"total_churn"`
	Commits    []ChainCommit `json:"commits" yaml:"commits"`
}

// DirectoryChain aggregates file edits under one path prefix
type DirectoryChain struct {
	Path           string   `json:"path" yaml:"path"`
	TotalEditCount int      `json:"total_edit_count" yaml:"total_edit_count"`
	TotalChurn     int      `json:"total_churn" yaml:"total_churn"`
	CommitCount    int      `json:"commit_count" yaml:"commit_count"`
	Files          []string `json:"files" yaml:"files"`
}

type fileHistory struct {
	path    string
	churn   int
	commits []ChainCommit
	ids     []string
}

// buildFileHistories groups edits by path. Input order (newest first) is kept
// inside each history.
func buildFileHistories(commits []temporal.Commit) map[string]*fileHistory {
	histories := make(map[string]*fileHistory)
	for _, c := range commits {
		entry := ChainCommit{Commit: c.ShortID(), Date: c.Date(), Message: c.Subject()}
		for _, fc := range temporal.MergeFileChanges(c.Files) {
			h, ok := histories[fc.Path]
			if !ok {
				h = &fileHistory{path: fc.Path}
				histories[fc.Path] = h
			}
			h.churn += fc.Churn()
			h.commits = append(h.commits, entry)
			h.ids = append(h.ids, c.ID)
		}
	}
	return histories
}

// multiEditChains reports files touched by at least minCommits commits with
// more than minChurn total churn.
func multiEditChains(histories map[string]*fileHistory, minCommits, minChurn, limit int) []MultiEditChain {
	chains := []MultiEditChain{}
	for _, h := range histories {
		if len(h.commits) < minCommits || h.churn <= minChurn {
			continue
		}
		chains = append(chains, MultiEditChain{
			Path:       h.path,
			EditCount:  len(h.commits),
			TotalChurn: h.churn,
			Commits:    h.commits,
		})
	}

	sort.Slice(chains, func(i, j int) bool {
		a, b := chains[i], chains[j]
		if a.EditCount != b.EditCount {
			return a.EditCount > b.EditCount
		}
		if a.TotalChurn != b.TotalChurn {
			return a.TotalChurn > b.TotalChurn
		}
		return a.Path < b.Path
	})
	return truncate(chains, limit)
}

// directoryChains rolls file histories up to DirPrefix(path, depth) and keeps
// directories touched by at least minCommits distinct commits.
func directoryChains(histories map[string]*fileHistory, depth, minCommits, limit int) []DirectoryChain {
	type agg struct {
		edits   int
		churn   int
		commits map[string]struct{}
		files   []string
	}
	dirs := make(map[string]*agg)
	for _, h := range histories {
		dir := DirPrefix(h.path, depth)
		a, ok := dirs[dir]
		if !ok {
			a = &agg{commits: make(map[string]struct{})}
			dirs[dir] = a
		}
		a.edits += len(h.commits)
		a.churn += h.churn
		a.files = append(a.files, h.path)
		for _, id := range h.ids {
			a.commits[id] = struct{}{}
		}
	}

	chains := []DirectoryChain{}
	for dir, a := range dirs {
		if len(a.commits) < minCommits {
			continue
		}
		sort.Strings(a.files)
		chains = append(chains, DirectoryChain{
			Path:           dir,
			TotalEditCount: a.edits,
			TotalChurn:     a.churn,
			CommitCount:    len(a.commits),
			Files:          a.files,
		})
	}

	sort.Slice(chains, func(i, j int) bool {
		if chains[i].TotalChurn != chains[j].TotalChurn {
			return chains[i].TotalChurn > chains[j].TotalChurn
		}
		return chains[i].Path < chains[j].Path
	})
	return truncate(chains, limit)
}

// DirPrefix maps a file path to its directory at the given depth. Depth 0
// and top-level files map to "."; a path with no more than depth components
// maps to its parent directory.
func DirPrefix(path string, depth int) string {
	if depth <= 0 {
		return "."
	}
	parts := strings.Split(path, "/")
	if len(parts) <= depth {
		if len(parts) == 1 {
			return "."
		}
		return strings.Join(parts[:len(parts)-1], "/")
	}
	return strings.Join(parts[:depth], "/")
}

func truncate[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
