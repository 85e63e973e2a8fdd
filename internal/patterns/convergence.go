package patterns

import (
	"sort"
)

// minConvergenceRatio is the smallest size ratio counted as converging
const minConvergenceRatio = 0.90

// ConvergencePair is two files at HEAD whose sizes are within 10% of each other
type ConvergencePair struct {
	FileA      string  `json:"file_a" yaml:"file_a"`
	FileB      string  `json:"file_b" yaml:"file_b"`
	BytesA     int64   `json:"bytes_a" yaml:"bytes_a"`
	BytesB     int64   `json:"bytes_b" yaml:"bytes_b"`
	BytesDiff  int64   `json:"bytes_diff" yaml:"bytes_diff"`
	BytesRatio float64 `json:"bytes_ratio" yaml:"bytes_ratio"`
}

type sizedFile struct {
	path string
	size int64
}

// Convergence pairs files of at least minBytes whose smaller/larger size
// ratio is at least 0.90, highest ratio first, capped at limit. The flag
// reports whether pairs were cut off.
func Convergence(sizes map[string]int64, minBytes int64, limit int) ([]ConvergencePair, bool) {
	files := make([]sizedFile, 0, len(sizes))
	for path, size := range sizes {
		if size >= minBytes && size > 0 {
			files = append(files, sizedFile{path: path, size: size})
		}
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].size != files[j].size {
			return files[i].size < files[j].size
		}
		return files[i].path < files[j].path
	})

	pairs := []ConvergencePair{}
	for i := range files {
		a := files[i]
		for j := i + 1; j < len(files); j++ {
			b := files[j]
			// sorted ascending: once the ratio drops, later files only get bigger
			ratio := float64(a.size) / float64(b.size)
			if ratio < minConvergenceRatio {
				break
			}
			pairs = append(pairs, ConvergencePair{
				FileA:      a.path,
				FileB:      b.path,
				BytesA:     a.size,
				BytesB:     b.size,
				BytesDiff:  b.size - a.size,
				BytesRatio: ratio,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].BytesRatio != pairs[j].BytesRatio {
			return pairs[i].BytesRatio > pairs[j].BytesRatio
		}
		if pairs[i].FileA != pairs[j].FileA {
			return pairs[i].FileA < pairs[j].FileA
		}
		return pairs[i].FileB < pairs[j].FileB
	})

	truncated := limit >= 0 && len(pairs) > limit
	return truncate(pairs, limit), truncated
}
