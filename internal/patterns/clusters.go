package patterns

import (
	"sort"
	"time"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// TemporalCluster is a burst of consecutive commits of one type
type TemporalCluster struct {
	ClusterType   temporal.CommitType `json:"cluster_type" yaml:"cluster_type"`
	CommitCount   int                 `json:"commit_count" yaml:"commit_count"`
	Commits       []string            `json:"commits" yaml:"commits"`
	Start         time.Time           `json:"start" yaml:"start"`
	End           time.Time           `json:"end" yaml:"end"`
	AffectedFiles []string            `json:"affected_files" yaml:"affected_files"`
}

// temporalClusters finds maximal runs of at least minCommits chronologically
// consecutive commits sharing a type, with first and last no more than window
// apart. Runs do not overlap; a short run restarts the search one commit later.
func temporalClusters(chrono []temporal.Commit, minCommits int, window time.Duration) []TemporalCluster {
	clusters := []TemporalCluster{}
	if minCommits < 1 {
		minCommits = 1
	}

	for i := 0; i < len(chrono); {
		first := chrono[i]
		j := i + 1
		for j < len(chrono) &&
			chrono[j].Type == first.Type &&
			chrono[j].Timestamp.Sub(first.Timestamp) <= window {
			j++
		}

		if j-i < minCommits {
			i++
			continue
		}

		run := chrono[i:j]
		ids := make([]string, len(run))
		seen := make(map[string]struct{})
		files := []string{}
		for k, c := range run {
			ids[k] = c.ShortID()
			for _, p := range c.Paths() {
				if _, ok := seen[p]; !ok {
					seen[p] = struct{}{}
					files = append(files, p)
				}
			}
		}
		sort.Strings(files)

		clusters = append(clusters, TemporalCluster{
			ClusterType:   first.Type,
			CommitCount:   len(run),
			Commits:       ids,
			Start:         first.Timestamp.UTC(),
			End:           run[len(run)-1].Timestamp.UTC(),
			AffectedFiles: files,
		})
		i = j
	}

	// newest burst first
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Start.After(clusters[j].Start)
	})
	return clusters
}
