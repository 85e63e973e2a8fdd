package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

func TestBusFactor(t *testing.T) {
	tests := []struct {
		name    string
		commits []int
		want    int
	}{
		{"single owner", []int{10}, 1},
		{"dominant author", []int{6, 2, 2}, 1},
		{"exactly half needs two", []int{5, 3, 2}, 2},
		{"even spread", []int{1, 1, 1, 1}, 3},
		{"no commits", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var authors []AuthorStats
			total := 0
			for _, n := range tt.commits {
				authors = append(authors, AuthorStats{Commits: n})
				total += n
			}
			assert.Equal(t, tt.want, BusFactor(authors, total))
		})
	}
}

func TestAuthors(t *testing.T) {
	r := Authors(churnHistory(), 1, 10)
	assert.Equal(t, 3, r.TotalAuthors)
	assert.Equal(t, 4, r.TotalCommitsAnalyzed)
	require.Len(t, r.Directories, 2)

	src := r.Directories[0]
	assert.Equal(t, "src", src.Path)
	assert.Equal(t, 4, src.TotalCommits)
	require.Len(t, src.Authors, 3)
	assert.Equal(t, AuthorStats{Name: "Bob", Email: "bob@example.com", Commits: 2, LinesAdded: 25, LinesDeleted: 5}, src.Authors[0])
	assert.Equal(t, "Bob", src.TopContributor)
	assert.Equal(t, 2, src.BusFactor)

	root := r.Directories[1]
	assert.Equal(t, ".", root.Path)
	assert.Equal(t, 1, root.TotalCommits)
	assert.Equal(t, 1, root.BusFactor)
	assert.Equal(t, "Ada", root.TopContributor)
}

func TestAuthorsCountsCommitOncePerDirectory(t *testing.T) {
	commits := []temporal.Commit{
		mk(1, temporal.TypeFeat, "Ada", "feat",
			change{Path: "pkg/a.go", Additions: 1},
			change{Path: "pkg/b.go", Additions: 2}),
	}
	r := Authors(commits, 1, 10)
	require.Len(t, r.Directories, 1)
	assert.Equal(t, 1, r.Directories[0].TotalCommits)
	assert.Equal(t, 3, r.Directories[0].Authors[0].LinesAdded)
}
