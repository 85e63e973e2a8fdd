package metrics

import (
	"sort"

	"github.com/rohankatakam/gitintel/internal/patterns"
	"github.com/rohankatakam/gitintel/internal/temporal"
)

// AuthorStats is one author's contribution to a directory
type AuthorStats struct {
	Name         string `json:"name" yaml:"name"`
	Email        string `json:"email" yaml:"email"`
	Commits      int    `json:"commits" yaml:"commits"`
	LinesAdded   int    `json:"lines_added" yaml:"lines_added"`
	LinesDeleted int    `json:"lines_deleted" yaml:"lines_deleted"`
}

// DirectoryAuthors summarizes ownership of one directory
type DirectoryAuthors struct {
	Path           string        `json:"path" yaml:"path"`
	Authors        []AuthorStats `json:"authors" yaml:"authors"`
	TopContributor string        `json:"top_contributor" yaml:"top_contributor"`
	BusFactor      int           `json:"bus_factor" yaml:"bus_factor"`
	TotalCommits   int           `json:"total_commits" yaml:"total_commits"`
}

// AuthorsReport is the authors document
type AuthorsReport struct {
	Directories          []DirectoryAuthors `json:"directories" yaml:"directories"`
	TotalAuthors         int                `json:"total_authors" yaml:"total_authors"`
	TotalCommitsAnalyzed int                `json:"total_commits_analyzed" yaml:"total_commits_analyzed"`
	Depth                int                `json:"depth" yaml:"depth"`
}

type dirAccum struct {
	commits int
	authors map[string]*AuthorStats
}

// Authors attributes commits and lines to directories by author email
// (already resolved through .mailmap). Directories with the most commits
// come first.
func Authors(commits []temporal.Commit, depth, limit int) *AuthorsReport {
	byDir := make(map[string]*dirAccum)
	emails := make(map[string]struct{})

	for _, c := range commits {
		emails[c.Email] = struct{}{}

		lines := make(map[string][2]int)
		for _, fc := range c.Files {
			dir := patterns.DirPrefix(fc.Path, depth)
			l := lines[dir]
			l[0] += fc.Additions
			l[1] += fc.Deletions
			lines[dir] = l
		}

		for dir, l := range lines {
			acc, ok := byDir[dir]
			if !ok {
				acc = &dirAccum{authors: make(map[string]*AuthorStats)}
				byDir[dir] = acc
			}
			acc.commits++

			a, ok := acc.authors[c.Email]
			if !ok {
				a = &AuthorStats{Name: c.Author, Email: c.Email}
				acc.authors[c.Email] = a
			}
			a.Commits++
			a.LinesAdded += l[0]
			a.LinesDeleted += l[1]
		}
	}

	dirs := make([]DirectoryAuthors, 0, len(byDir))
	for path, acc := range byDir {
		authors := make([]AuthorStats, 0, len(acc.authors))
		for _, a := range acc.authors {
			authors = append(authors, *a)
		}
		sort.Slice(authors, func(i, j int) bool {
			if authors[i].Commits != authors[j].Commits {
				return authors[i].Commits > authors[j].Commits
			}
			return authors[i].Email < authors[j].Email
		})

		top := ""
		if len(authors) > 0 {
			top = authors[0].Name
		}
		dirs = append(dirs, DirectoryAuthors{
			Path:           path,
			Authors:        authors,
			TopContributor: top,
			BusFactor:      BusFactor(authors, acc.commits),
			TotalCommits:   acc.commits,
		})
	}
	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].TotalCommits != dirs[j].TotalCommits {
			return dirs[i].TotalCommits > dirs[j].TotalCommits
		}
		return dirs[i].Path < dirs[j].Path
	})

	return &AuthorsReport{
		Directories:          truncate(dirs, limit),
		TotalAuthors:         len(emails),
		TotalCommitsAnalyzed: len(commits),
		Depth:                depth,
	}
}

// BusFactor is the smallest number of top authors (sorted by commits
// descending) who together made more than half of the commits.
func BusFactor(authors []AuthorStats, totalCommits int) int {
	if totalCommits == 0 || len(authors) == 0 {
		return 0
	}
	half := float64(totalCommits) * 0.5
	accumulated := 0
	for i, a := range authors {
		accumulated += a.Commits
		if float64(accumulated) > half {
			return i + 1
		}
	}
	return len(authors)
}
