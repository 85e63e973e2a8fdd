package temporal

import (
	"sort"
	"strings"
	"time"
)

// CommitType is the single label the classifier assigns to a commit
type CommitType string

const (
	TypeUnset    CommitType = ""
	TypeMerge    CommitType = "merge"
	TypeRevert   CommitType = "revert"
	TypeRelease  CommitType = "release"
	TypeFeat     CommitType = "feat"
	TypeFix      CommitType = "fix"
	TypeChore    CommitType = "chore"
	TypeDocs     CommitType = "docs"
	TypeRefactor CommitType = "refactor"
	TypeTest     CommitType = "test"
	TypeStyle    CommitType = "style"
	TypePerf     CommitType = "perf"
	TypeCI       CommitType = "ci"
	TypeBuild    CommitType = "build"
	TypeOther    CommitType = "other"
)

// AllTypes lists the closed label set in reporting order
var AllTypes = []CommitType{
	TypeMerge, TypeRevert, TypeRelease, TypeFeat, TypeFix, TypeChore, TypeDocs,
	TypeRefactor, TypeTest, TypeStyle, TypePerf, TypeCI, TypeBuild, TypeOther,
}

// ParseCommitType maps a label string onto the closed set.
// Unknown labels report false.
func ParseCommitType(s string) (CommitType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllTypes {
		if string(t) == s {
			return t, true
		}
	}
	return TypeUnset, false
}

// Commit is one record produced by the commit source. It is read-only for the
// duration of a query; only Type is filled in afterwards by the classifier.
type Commit struct {
	ID        string       `json:"id"`
	ParentIDs []string     `json:"parent_ids"`
	Author    string       `json:"author"`
	Email     string       `json:"email"`
	Timestamp time.Time    `json:"timestamp"`
	Message   string       `json:"message"`
	Type      CommitType   `json:"type,omitempty"`
	Files     []FileChange `json:"files"`
}

// FileChange represents file modifications in a commit
type FileChange struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Churn returns additions plus deletions
func (f FileChange) Churn() int {
	return f.Additions + f.Deletions
}

// ShortID returns the 7 character abbreviated hash
func (c Commit) ShortID() string {
	if len(c.ID) <= 7 {
		return c.ID
	}
	return c.ID[:7]
}

// Subject returns the first line of the commit message
func (c Commit) Subject() string {
	return FirstLine(c.Message)
}

// IsMerge reports whether the commit has two or more parents
func (c Commit) IsMerge() bool {
	return len(c.ParentIDs) >= 2
}

// Date formats the commit timestamp as YYYY-MM-DD in UTC
func (c Commit) Date() string {
	return c.Timestamp.UTC().Format(DateLayout)
}

// Paths returns the sorted, de-duplicated set of paths touched by the commit
func (c Commit) Paths() []string {
	seen := make(map[string]struct{}, len(c.Files))
	paths := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		if _, ok := seen[f.Path]; ok {
			continue
		}
		seen[f.Path] = struct{}{}
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}

// Churn returns the total lines added and removed by the commit
func (c Commit) Churn() int {
	total := 0
	for _, f := range c.Files {
		total += f.Churn()
	}
	return total
}

// FirstLine returns the text up to the first newline
func FirstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	return strings.TrimRight(message, "\r")
}

// MergeFileChanges collapses repeated paths into one entry by summing counts.
// The order of first appearance is preserved.
func MergeFileChanges(changes []FileChange) []FileChange {
	if len(changes) < 2 {
		return changes
	}
	index := make(map[string]int, len(changes))
	merged := make([]FileChange, 0, len(changes))
	for _, fc := range changes {
		if i, ok := index[fc.Path]; ok {
			merged[i].Additions += fc.Additions
			merged[i].Deletions += fc.Deletions
			continue
		}
		index[fc.Path] = len(merged)
		merged = append(merged, fc)
	}
	return merged
}

// Chronological returns a copy of commits ordered oldest first.
// Ties on timestamp are broken by ID so the order is deterministic.
func Chronological(commits []Commit) []Commit {
	out := make([]Commit, len(commits))
	copy(out, commits)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// NewestFirst returns a copy of commits ordered newest first
func NewestFirst(commits []Commit) []Commit {
	out := Chronological(commits)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
