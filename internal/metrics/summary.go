// Package metrics aggregates a classified commit history into the summary
// documents of the metrics, churn, hotspots, authors and lifecycle commands.
package metrics

import (
	"sort"

	"github.com/rohankatakam/gitintel/internal/classify"
	"github.com/rohankatakam/gitintel/internal/temporal"
)

// TypeCount is the share of one commit type
type TypeCount struct {
	Type       string  `json:"type" yaml:"type"`
	Count      int     `json:"count" yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// DayActivity counts commits on one calendar day (UTC)
type DayActivity struct {
	Date    string `json:"date" yaml:"date"`
	Commits int    `json:"commits" yaml:"commits"`
}

// Velocity describes lines changed per commit
type Velocity struct {
	AvgLinesPerCommit float64 `json:"avg_lines_per_commit" yaml:"avg_lines_per_commit"`
	MaxLinesInCommit  int     `json:"max_lines_in_commit" yaml:"max_lines_in_commit"`
	MinLinesInCommit  int     `json:"min_lines_in_commit" yaml:"min_lines_in_commit"`
	TotalLinesChanged int     `json:"total_lines_changed" yaml:"total_lines_changed"`
}

// TicketCount counts commits referencing one ticket
type TicketCount struct {
	Ticket string `json:"ticket" yaml:"ticket"`
	Count  int    `json:"count" yaml:"count"`
}

// Summary is the metrics document
type Summary struct {
	CommitTypes  []TypeCount   `json:"commit_types" yaml:"commit_types"`
	Activity     []DayActivity `json:"activity" yaml:"activity"`
	Velocity     Velocity      `json:"velocity" yaml:"velocity"`
	TotalCommits int           `json:"total_commits" yaml:"total_commits"`
	TicketRefs   []TicketCount `json:"ticket_refs,omitempty" yaml:"ticket_refs,omitempty"`
}

// Summarize computes type distribution, daily activity, line velocity and
// ticket references. Every list is truncated to limit.
func Summarize(commits []temporal.Commit, limit int) *Summary {
	types := make(map[string]int)
	days := make(map[string]int)
	tickets := make(map[string]int)
	var vel Velocity

	for i, c := range commits {
		typ := c.Type
		if typ == temporal.TypeUnset {
			typ = temporal.TypeOther
		}
		types[string(typ)]++
		days[c.Date()]++

		if ticket, ok := classify.ExtractTicketRef(c.Message); ok {
			tickets[ticket]++
		}

		lines := c.Churn()
		vel.TotalLinesChanged += lines
		if i == 0 || lines > vel.MaxLinesInCommit {
			vel.MaxLinesInCommit = lines
		}
		if i == 0 || lines < vel.MinLinesInCommit {
			vel.MinLinesInCommit = lines
		}
	}

	total := len(commits)
	if total > 0 {
		vel.AvgLinesPerCommit = float64(vel.TotalLinesChanged) / float64(total)
	}

	commitTypes := make([]TypeCount, 0, len(types))
	for typ, n := range types {
		commitTypes = append(commitTypes, TypeCount{
			Type:       typ,
			Count:      n,
			Percentage: float64(n) / float64(total) * 100,
		})
	}
	sort.Slice(commitTypes, func(i, j int) bool {
		if commitTypes[i].Count != commitTypes[j].Count {
			return commitTypes[i].Count > commitTypes[j].Count
		}
		return commitTypes[i].Type < commitTypes[j].Type
	})

	activity := make([]DayActivity, 0, len(days))
	for date, n := range days {
		activity = append(activity, DayActivity{Date: date, Commits: n})
	}
	sort.Slice(activity, func(i, j int) bool {
		return activity[i].Date > activity[j].Date
	})

	refs := make([]TicketCount, 0, len(tickets))
	for ticket, n := range tickets {
		refs = append(refs, TicketCount{Ticket: ticket, Count: n})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Count != refs[j].Count {
			return refs[i].Count > refs[j].Count
		}
		return refs[i].Ticket < refs[j].Ticket
	})

	return &Summary{
		CommitTypes:  truncate(commitTypes, limit),
		Activity:     truncate(activity, limit),
		Velocity:     vel,
		TotalCommits: total,
		TicketRefs:   truncate(refs, limit),
	}
}

func truncate[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
