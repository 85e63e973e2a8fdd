package metrics

import (
	"sort"

	"github.com/rohankatakam/gitintel/internal/patterns"
	"github.com/rohankatakam/gitintel/internal/temporal"
)

// FileChurn is the accumulated change volume of one path
type FileChurn struct {
	Path        string `json:"path" yaml:"path"`
	Additions   int    `json:"additions" yaml:"additions"`
	Deletions   int    `json:"deletions" yaml:"deletions"`
	TotalChurn  int    `json:"total_churn" yaml:"total_churn"`
	CommitCount int    `json:"commit_count" yaml:"commit_count"`
}

// ChurnReport is the churn document
type ChurnReport struct {
	Files                []FileChurn `json:"files" yaml:"files"`
	TotalFiles           int         `json:"total_files" yaml:"total_files"`
	TotalCommitsAnalyzed int         `json:"total_commits_analyzed" yaml:"total_commits_analyzed"`
}

// Churn ranks files by additions plus deletions. TotalFiles counts every
// touched file before the limit applies.
func Churn(commits []temporal.Commit, limit int) *ChurnReport {
	files := fileChurn(commits)
	return &ChurnReport{
		Files:                truncate(files, limit),
		TotalFiles:           len(files),
		TotalCommitsAnalyzed: len(commits),
	}
}

func fileChurn(commits []temporal.Commit) []FileChurn {
	byPath := make(map[string]*FileChurn)
	for _, c := range commits {
		for _, fc := range temporal.MergeFileChanges(c.Files) {
			f, ok := byPath[fc.Path]
			if !ok {
				f = &FileChurn{Path: fc.Path}
				byPath[fc.Path] = f
			}
			f.Additions += fc.Additions
			f.Deletions += fc.Deletions
			f.CommitCount++
		}
	}

	files := make([]FileChurn, 0, len(byPath))
	for _, f := range byPath {
		f.TotalChurn = f.Additions + f.Deletions
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].TotalChurn != files[j].TotalChurn {
			return files[i].TotalChurn > files[j].TotalChurn
		}
		return files[i].Path < files[j].Path
	})
	return files
}

// DirectoryHotspot is churn rolled up to a directory
type DirectoryHotspot struct {
	Path        string `json:"path" yaml:"path"`
	Additions   int    `json:"additions" yaml:"additions"`
	Deletions   int    `json:"deletions" yaml:"deletions"`
	TotalChurn  int    `json:"total_churn" yaml:"total_churn"`
	CommitCount int    `json:"commit_count" yaml:"commit_count"`
	FileCount   int    `json:"file_count" yaml:"file_count"`
}

// HotspotsReport is the hotspots document
type HotspotsReport struct {
	Directories          []DirectoryHotspot `json:"directories" yaml:"directories"`
	TotalDirectories     int                `json:"total_directories" yaml:"total_directories"`
	TotalCommitsAnalyzed int                `json:"total_commits_analyzed" yaml:"total_commits_analyzed"`
	Depth                int                `json:"depth" yaml:"depth"`
}

// Hotspots aggregates file churn by directory prefix. A directory's commit
// count is the sum of its files' commit counts.
func Hotspots(commits []temporal.Commit, depth, limit int) *HotspotsReport {
	byDir := make(map[string]*DirectoryHotspot)
	for _, f := range fileChurn(commits) {
		dir := patterns.DirPrefix(f.Path, depth)
		d, ok := byDir[dir]
		if !ok {
			d = &DirectoryHotspot{Path: dir}
			byDir[dir] = d
		}
		d.Additions += f.Additions
		d.Deletions += f.Deletions
		d.CommitCount += f.CommitCount
		d.FileCount++
	}

	dirs := make([]DirectoryHotspot, 0, len(byDir))
	for _, d := range byDir {
		d.TotalChurn = d.Additions + d.Deletions
		dirs = append(dirs, *d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].TotalChurn != dirs[j].TotalChurn {
			return dirs[i].TotalChurn > dirs[j].TotalChurn
		}
		return dirs[i].Path < dirs[j].Path
	})

	return &HotspotsReport{
		Directories:          truncate(dirs, limit),
		TotalDirectories:     len(dirs),
		TotalCommitsAnalyzed: len(commits),
		Depth:                depth,
	}
}
