package metrics

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/temporal"
)

// Lifecycle statuses of a file at one commit
const (
	StatusCreated  = "created"
	StatusDeleted  = "deleted"
	StatusModified = "modified"
	StatusGrown    = "grown"
	StatusShrunk   = "shrunk"
	StatusTouched  = "touched"
)

// TreeReader reads file contents at a commit
type TreeReader interface {
	Head() (string, error)
	LineCount(commitID, path string) (int, bool, error)
}

// Snapshot is a file's state after one commit that touched it
type Snapshot struct {
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	Message   string `json:"message" yaml:"message"`
	Lines     *int   `json:"lines" yaml:"lines"`
	Additions int    `json:"additions" yaml:"additions"`
	Deletions int    `json:"deletions" yaml:"deletions"`
	NetChange int    `json:"net_change" yaml:"net_change"`
	Status    string `json:"status" yaml:"status"`
}

// FileLifecycle is the history of one requested path
type FileLifecycle struct {
	Path         string     `json:"path" yaml:"path"`
	Exists       bool       `json:"exists" yaml:"exists"`
	CurrentLines *int       `json:"current_lines" yaml:"current_lines"`
	History      []Snapshot `json:"history" yaml:"history"`
}

// LifecycleReport is the lifecycle document
type LifecycleReport struct {
	Files []FileLifecycle `json:"files" yaml:"files"`
}

// Lifecycle traces each requested path through the commits that touched it,
// newest first, with its line count after every commit and at HEAD.
func Lifecycle(commits []temporal.Commit, paths []string, tree TreeReader) (*LifecycleReport, error) {
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil, errors.InvalidParam("files", "lifecycle requires at least one file path")
	}

	head, err := tree.Head()
	if err != nil {
		return nil, err
	}

	ordered := temporal.NewestFirst(commits)
	report := &LifecycleReport{Files: make([]FileLifecycle, 0, len(paths))}

	for _, path := range paths {
		history := []Snapshot{}
		for _, c := range ordered {
			fc, ok := findChange(c, path)
			if !ok {
				continue
			}
			snap, err := snapshot(c, fc, tree)
			if err != nil {
				return nil, err
			}
			history = append(history, snap)
		}

		current, err := optionalLines(tree, head, path)
		if err != nil {
			return nil, err
		}
		report.Files = append(report.Files, FileLifecycle{
			Path:         path,
			Exists:       current != nil,
			CurrentLines: current,
			History:      history,
		})
	}
	return report, nil
}

func snapshot(c temporal.Commit, fc temporal.FileChange, tree TreeReader) (Snapshot, error) {
	lines, err := optionalLines(tree, c.ID, fc.Path)
	if err != nil {
		return Snapshot{}, err
	}

	inParent := false
	if len(c.ParentIDs) > 0 {
		parent, err := optionalLines(tree, c.ParentIDs[0], fc.Path)
		if err != nil {
			return Snapshot{}, err
		}
		inParent = parent != nil
	}

	return Snapshot{
		Commit:    c.ShortID(),
		Date:      c.Date(),
		Message:   c.Subject(),
		Lines:     lines,
		Additions: fc.Additions,
		Deletions: fc.Deletions,
		NetChange: fc.Additions - fc.Deletions,
		Status:    status(lines != nil, inParent, fc),
	}, nil
}

func status(exists, inParent bool, fc temporal.FileChange) string {
	switch {
	case exists && !inParent:
		return StatusCreated
	case !exists:
		return StatusDeleted
	case fc.Additions > 0 && fc.Deletions > 0:
		return StatusModified
	case fc.Additions > 0:
		return StatusGrown
	case fc.Deletions > 0:
		return StatusShrunk
	default:
		return StatusTouched
	}
}

func optionalLines(tree TreeReader, commitID, path string) (*int, error) {
	n, ok, err := tree.LineCount(commitID, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s at %.7s: %w", path, commitID, err)
	}
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func findChange(c temporal.Commit, path string) (temporal.FileChange, bool) {
	found := false
	var out temporal.FileChange
	for _, fc := range c.Files {
		if fc.Path == path {
			out.Path = path
			out.Additions += fc.Additions
			out.Deletions += fc.Deletions
			found = true
		}
	}
	return out, found
}

// normalizePaths trims, drops empties and a leading "./", keeping order and
// the first occurrence of duplicates.
func normalizePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimPrefix(strings.TrimSpace(p), "./")
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
