package patterns

import (
	"sort"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// GravitySet holds the paths touched by so many commits in scope that their
// presence in a fix-after pair says nothing. It is computed once per query
// and never modified afterwards.
type GravitySet struct {
	paths map[string]struct{}
}

// ComputeGravity returns the set of paths touched by more than threshold of
// the commits. Below minCommits commits the fraction is too noisy and the
// set is empty.
func ComputeGravity(commits []temporal.Commit, threshold float64, minCommits int) GravitySet {
	set := GravitySet{paths: map[string]struct{}{}}
	total := len(commits)
	if total == 0 || total < minCommits {
		return set
	}

	touches := make(map[string]int)
	for _, c := range commits {
		for _, p := range c.Paths() {
			touches[p]++
		}
	}

	for path, n := range touches {
		if float64(n)/float64(total) > threshold {
			set.paths[path] = struct{}{}
		}
	}
	return set
}

// Contains reports whether path is a gravity file
func (g GravitySet) Contains(path string) bool {
	_, ok := g.paths[path]
	return ok
}

// Len returns the number of gravity files
func (g GravitySet) Len() int {
	return len(g.paths)
}

// Paths returns the gravity files sorted
func (g GravitySet) Paths() []string {
	out := make([]string, 0, len(g.paths))
	for p := range g.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Filter returns the paths that are not gravity files, preserving order
func (g GravitySet) Filter(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !g.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}
