package patterns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

func TestTemporalClusters(t *testing.T) {
	chrono := []temporal.Commit{
		commit(0, temporal.TypeFix, "fix", "a.go"),
		commit(20, temporal.TypeFix, "fix", "b.go"),
		commit(60, temporal.TypeFix, "fix", "a.go"),
		commit(61, temporal.TypeFix, "fix", "c.go"), // 61 minutes after the first
		commit(200, temporal.TypeFeat, "feat", "x.go"),
		commit(201, temporal.TypeFeat, "feat", "y.go"),
		commit(202, temporal.TypeChore, "chore", "z"),
		commit(203, temporal.TypeFeat, "feat", "w.go"),
	}

	clusters := temporalClusters(chrono, 3, time.Hour)
	require.Len(t, clusters, 1)
	c := clusters[0]
	assert.Equal(t, temporal.TypeFix, c.ClusterType)
	assert.Equal(t, 3, c.CommitCount)
	assert.Equal(t, []string{short(0), short(20), short(60)}, c.Commits)
	assert.Equal(t, []string{"a.go", "b.go"}, c.AffectedFiles)
	assert.Equal(t, base, c.Start)
	assert.Equal(t, base.Add(time.Hour), c.End)
}

func TestTemporalClustersRestartAfterShortRun(t *testing.T) {
	chrono := []temporal.Commit{
		commit(0, temporal.TypeFix, "fix", "a"),
		commit(30, temporal.TypeFix, "fix", "b"),
		commit(70, temporal.TypeFix, "fix", "c"),
		commit(80, temporal.TypeFix, "fix", "d"),
	}

	clusters := temporalClusters(chrono, 3, time.Hour)
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{short(30), short(70), short(80)}, clusters[0].Commits)
}

func TestTemporalClustersNewestFirst(t *testing.T) {
	var chrono []temporal.Commit
	for _, n := range []int{0, 1, 2, 500, 501, 502} {
		chrono = append(chrono, commit(n, temporal.TypeTest, "test", "t.go"))
	}
	clusters := temporalClusters(chrono, 3, time.Hour)
	require.Len(t, clusters, 2)
	assert.True(t, clusters[0].Start.After(clusters[1].Start))
}
