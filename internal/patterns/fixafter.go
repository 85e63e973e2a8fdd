package patterns

import (
	"sort"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// FixAfter is a raw fix-after-X match before any precision filter
type FixAfter struct {
	TriggerCommit  string   `json:"trigger_commit" yaml:"trigger_commit"`
	TriggerDate    string   `json:"trigger_date" yaml:"trigger_date"`
	TriggerMessage string   `json:"trigger_message" yaml:"trigger_message"`
	FixCommit      string   `json:"fix_commit" yaml:"fix_commit"`
	FixDate        string   `json:"fix_date" yaml:"fix_date"`
	FixMessage     string   `json:"fix_message" yaml:"fix_message"`
	GapCommits     int      `json:"gap_commits" yaml:"gap_commits"`
	SharedFiles    []string `json:"shared_files" yaml:"shared_files"`
}

type candidate struct {
	kind    Kind
	trigger temporal.Commit
	fix     temporal.Commit
	gap     int
	shared  []string
	trgPos  int
	fixPos  int
}

// findCandidates walks the chronological sequence and pairs each fix with
// every feat or refactor among the preceding lookback commits that shares at
// least one path with it.
func findCandidates(chrono []temporal.Commit, lookback int) []candidate {
	var out []candidate
	for i, fix := range chrono {
		if fix.Type != temporal.TypeFix {
			continue
		}
		fixPaths := fix.Paths()
		if len(fixPaths) == 0 {
			continue
		}

		for k := 1; k <= lookback && i-k >= 0; k++ {
			trigger := chrono[i-k]
			var kind Kind
			switch trigger.Type {
			case temporal.TypeFeat:
				kind = KindFixAfterFeat
			case temporal.TypeRefactor:
				kind = KindFixAfterRefactor
			default:
				continue
			}

			shared := intersect(fixPaths, trigger.Paths())
			if len(shared) == 0 {
				continue
			}
			out = append(out, candidate{
				kind:    kind,
				trigger: trigger,
				fix:     fix,
				gap:     k - 1,
				shared:  shared,
				trgPos:  i - k,
				fixPos:  i,
			})
		}
	}
	return out
}

// intersect returns the common elements of two sorted string slices
func intersect(a, b []string) []string {
	out := []string{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// rawFixAfter splits candidates into the per-kind raw collections, most
// recent fix first.
func rawFixAfter(candidates []candidate) (feat, refactor []FixAfter) {
	feat, refactor = []FixAfter{}, []FixAfter{}

	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].fixPos != sorted[j].fixPos {
			return sorted[i].fixPos > sorted[j].fixPos
		}
		return sorted[i].trgPos > sorted[j].trgPos
	})

	for _, c := range sorted {
		fa := FixAfter{
			TriggerCommit:  c.trigger.ShortID(),
			TriggerDate:    c.trigger.Date(),
			TriggerMessage: c.trigger.Subject(),
			FixCommit:      c.fix.ShortID(),
			FixDate:        c.fix.Date(),
			FixMessage:     c.fix.Subject(),
			GapCommits:     c.gap,
			SharedFiles:    c.shared,
		}
		if c.kind == KindFixAfterRefactor {
			refactor = append(refactor, fa)
		} else {
			feat = append(feat, fa)
		}
	}
	return feat, refactor
}
