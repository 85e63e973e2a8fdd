package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

func TestSummarize(t *testing.T) {
	commits := []temporal.Commit{
		mk(1, temporal.TypeFeat, "Ada", "feat: login [AUTH-12]", change{Path: "a.go", Additions: 10, Deletions: 2}),
		mk(2, temporal.TypeFix, "Ada", "fix: crash AUTH-12", change{Path: "a.go", Additions: 1, Deletions: 1}),
		mk(3, temporal.TypeFix, "Bob", "fix: closes #7", change{Path: "b.go", Additions: 30}),
		mk(4, temporal.TypeUnset, "Bob", "wip"),
		mk(5, temporal.TypeFeat, "Ada", "feat: more", change{Path: "c.go", Additions: 5}, change{Path: "d.go", Deletions: 5}),
	}

	s := Summarize(commits, 10)
	assert.Equal(t, 5, s.TotalCommits)

	require.Len(t, s.CommitTypes, 3)
	assert.Equal(t, TypeCount{Type: "feat", Count: 2, Percentage: 40}, s.CommitTypes[0])
	assert.Equal(t, TypeCount{Type: "fix", Count: 2, Percentage: 40}, s.CommitTypes[1])
	assert.Equal(t, "other", s.CommitTypes[2].Type)

	// 6-hour spacing from 15:00 on Feb 10: 21:00, 03:00, 09:00, 15:00, 21:00
	assert.Equal(t, []DayActivity{
		{Date: "2024-02-11", Commits: 4},
		{Date: "2024-02-10", Commits: 1},
	}, s.Activity)

	assert.Equal(t, Velocity{
		AvgLinesPerCommit: 54.0 / 5.0,
		MaxLinesInCommit:  30,
		MinLinesInCommit:  0,
		TotalLinesChanged: 54,
	}, s.Velocity)

	assert.Equal(t, []TicketCount{{Ticket: "AUTH-12", Count: 2}, {Ticket: "#7", Count: 1}}, s.TicketRefs)
}

func TestSummarizeLimitAndEmpty(t *testing.T) {
	commits := []temporal.Commit{
		mk(1, temporal.TypeFeat, "Ada", "feat"),
		mk(5, temporal.TypeFix, "Ada", "fix"),
		mk(9, temporal.TypeDocs, "Ada", "docs"),
	}
	s := Summarize(commits, 1)
	assert.Len(t, s.CommitTypes, 1)
	assert.Len(t, s.Activity, 1)
	assert.Equal(t, 3, s.TotalCommits)

	empty := Summarize(nil, 10)
	assert.Equal(t, 0, empty.TotalCommits)
	assert.Equal(t, Velocity{}, empty.Velocity)
	assert.Empty(t, empty.TicketRefs)
}
