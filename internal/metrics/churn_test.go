package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

func churnHistory() []temporal.Commit {
	return []temporal.Commit{
		mk(1, temporal.TypeFeat, "Ada", "feat", change{Path: "src/api/a.go", Additions: 50}, change{Path: "README.md", Additions: 5}),
		mk(2, temporal.TypeFix, "Bob", "fix", change{Path: "src/api/a.go", Additions: 5, Deletions: 5}),
		mk(3, temporal.TypeFeat, "Bob", "feat", change{Path: "src/db/x.go", Additions: 20}),
		mk(4, temporal.TypeFix, "Cy", "fix", change{Path: "src/api/b.go", Deletions: 3}),
	}
}

func TestChurn(t *testing.T) {
	r := Churn(churnHistory(), 2)
	assert.Equal(t, 4, r.TotalFiles)
	assert.Equal(t, 4, r.TotalCommitsAnalyzed)
	require.Len(t, r.Files, 2)
	assert.Equal(t, FileChurn{Path: "src/api/a.go", Additions: 55, Deletions: 5, TotalChurn: 60, CommitCount: 2}, r.Files[0])
	assert.Equal(t, "src/db/x.go", r.Files[1].Path)
}

func TestHotspots(t *testing.T) {
	r := Hotspots(churnHistory(), 1, 10)
	assert.Equal(t, 1, r.Depth)
	assert.Equal(t, 2, r.TotalDirectories)
	require.Len(t, r.Directories, 2)
	assert.Equal(t, DirectoryHotspot{
		Path: "src", Additions: 75, Deletions: 8, TotalChurn: 83, CommitCount: 4, FileCount: 3,
	}, r.Directories[0])
	assert.Equal(t, ".", r.Directories[1].Path)

	r = Hotspots(churnHistory(), 2, 10)
	require.Len(t, r.Directories, 3)
	assert.Equal(t, "src/api", r.Directories[0].Path)
	assert.Equal(t, 63, r.Directories[0].TotalChurn)
	assert.Equal(t, 3, r.Directories[0].CommitCount)

	r = Hotspots(churnHistory(), 2, 1)
	assert.Len(t, r.Directories, 1)
	assert.Equal(t, 3, r.TotalDirectories)
}
