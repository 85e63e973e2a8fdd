package patterns

import (
	"fmt"
	"strings"
	"time"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// commit builds a classified commit n minutes after base. Each path gets
// ten added lines.
func commit(n int, typ temporal.CommitType, message string, paths ...string) temporal.Commit {
	files := make([]temporal.FileChange, len(paths))
	for i, p := range paths {
		files[i] = temporal.FileChange{Path: p, Additions: 10}
	}
	return temporal.Commit{
		ID:        fmt.Sprintf("%07d", n) + strings.Repeat("f", 33),
		ParentIDs: []string{"parent"},
		Author:    "Ada",
		Email:     "ada@example.com",
		Timestamp: base.Add(time.Duration(n) * time.Minute),
		Message:   message,
		Type:      typ,
		Files:     files,
	}
}

func short(n int) string {
	return fmt.Sprintf("%07d", n)
}
