package git

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/temporal"
)

// Excluder drops file changes whose path matches any configured glob.
// Patterns without a slash also match a bare file name anywhere in the tree
// ("*.lock"), and a directory pattern matches everything below it ("vendor").
type Excluder struct {
	patterns []string
}

// NewExcluder validates the glob patterns
func NewExcluder(patterns []string) (*Excluder, error) {
	e := &Excluder{}
	for _, p := range patterns {
		p = strings.TrimPrefix(strings.TrimSpace(p), "./")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, errors.InvalidParam("history.exclude", "invalid exclude pattern %q", p)
		}
		e.patterns = append(e.patterns, p)
	}
	return e, nil
}

// Match reports whether path is excluded
func (e *Excluder) Match(path string) bool {
	if e == nil {
		return false
	}
	for _, p := range e.patterns {
		if matchPattern(p, path) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	if matched, _ := doublestar.Match(pattern, path); matched {
		return true
	}
	if !strings.HasSuffix(pattern, "/**") {
		if matched, _ := doublestar.Match(pattern+"/**", path); matched {
			return true
		}
	}
	if !strings.Contains(pattern, "/") {
		base := path[strings.LastIndexByte(path, '/')+1:]
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
		// a bare directory name anywhere in the path
		if matched, _ := doublestar.Match("**/"+pattern+"/**", path); matched {
			return true
		}
	}
	return false
}

// Filter returns changes whose paths are not excluded. The input is not modified.
func (e *Excluder) Filter(changes []temporal.FileChange) []temporal.FileChange {
	if e == nil || len(e.patterns) == 0 {
		return changes
	}
	out := make([]temporal.FileChange, 0, len(changes))
	for _, fc := range changes {
		if !e.Match(fc.Path) {
			out = append(out, fc)
		}
	}
	return out
}
