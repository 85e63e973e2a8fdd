package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

var day0 = time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)

type change = temporal.FileChange

func mk(n int, typ temporal.CommitType, author, message string, files ...change) temporal.Commit {
	return temporal.Commit{
		ID:        fmt.Sprintf("%07d", n) + strings.Repeat("0", 33),
		ParentIDs: []string{fmt.Sprintf("%07d", n-1) + strings.Repeat("0", 33)},
		Author:    author,
		Email:     strings.ToLower(author) + "@example.com",
		Timestamp: day0.Add(time.Duration(n) * 6 * time.Hour),
		Message:   message,
		Type:      typ,
		Files:     files,
	}
}
