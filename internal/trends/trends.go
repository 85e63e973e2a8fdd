// Package trends compares fixed-size time windows of commit activity.
package trends

import (
	"sort"
	"time"

	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/temporal"
)

// Defaults for a trend query
const (
	DefaultWindows    = 4
	DefaultWindowDays = 90
	DefaultTopChurn   = 10

	// stableTolerance is the relative difference, against the larger value,
	// within which two windows count as stable
	stableTolerance = 0.10
)

// Direction labels a delta between window 0 and window 1
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// Options configures Analyze
type Options struct {
	Windows    int
	WindowDays int
	TopChurn   int
	Now        time.Time
}

// DefaultOptions returns the documented defaults anchored at now
func DefaultOptions(now time.Time) Options {
	return Options{
		Windows:    DefaultWindows,
		WindowDays: DefaultWindowDays,
		TopChurn:   DefaultTopChurn,
		Now:        now,
	}
}

// Validate rejects window settings that cannot partition time
func (o Options) Validate() error {
	if o.Windows < 1 {
		return errors.InvalidParam("windows", "--windows must be at least 1 (got %d)", o.Windows)
	}
	if o.WindowDays < 1 {
		return errors.InvalidParam("window-days", "--window-days must be at least 1 (got %d)", o.WindowDays)
	}
	if o.TopChurn < 0 {
		return errors.InvalidParam("top-churn", "--top-churn must not be negative (got %d)", o.TopChurn)
	}
	return nil
}

// Window summarizes the commits of one half-open time slice
type Window struct {
	Index            int            `json:"index" yaml:"index"`
	Label            string         `json:"label" yaml:"label"`
	Since            string         `json:"since" yaml:"since"`
	Until            string         `json:"until" yaml:"until"`
	TotalCommits     int            `json:"total_commits" yaml:"total_commits"`
	TypeDistribution map[string]int `json:"type_distribution" yaml:"type_distribution"`
	Velocity         float64        `json:"velocity" yaml:"velocity"`
	TopChurnFiles    []string       `json:"top_churn_files" yaml:"top_churn_files"`

	touched map[string]struct{}
	fixes   int
}

// Deltas compares the newest window to the one before it
type Deltas struct {
	CommitTrend  Direction `json:"commit_trend" yaml:"commit_trend"`
	FixRateTrend Direction `json:"fix_rate_trend" yaml:"fix_rate_trend"`
}

// Result is the trends document
type Result struct {
	Windows        []Window `json:"windows" yaml:"windows"`
	WindowCount    int      `json:"window_count" yaml:"window_count"`
	WindowSizeDays int      `json:"window_size_days" yaml:"window_size_days"`
	Deltas         Deltas   `json:"deltas" yaml:"deltas"`
	DormantFiles   []string `json:"dormant_files" yaml:"dormant_files"`
}

// Span returns the time covered by all windows, for bounding the history walk
func (o Options) Span() (since, until time.Time) {
	size := time.Duration(o.WindowDays) * 24 * time.Hour
	return o.Now.Add(-time.Duration(o.Windows) * size), o.Now
}

// Analyze partitions [now - N*S, now) into N windows, newest first, and
// summarizes each. Commits outside the span are ignored.
func Analyze(commits []temporal.Commit, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	size := time.Duration(opts.WindowDays) * 24 * time.Hour
	windows := make([]Window, opts.Windows)
	for i := range windows {
		end := opts.Now.Add(-time.Duration(i) * size)
		start := end.Add(-size)
		since, until := start.UTC().Format(temporal.DateLayout), end.UTC().Format(temporal.DateLayout)
		windows[i] = Window{
			Index:            i,
			Label:            since + " to " + until,
			Since:            since,
			Until:            until,
			TypeDistribution: map[string]int{},
			TopChurnFiles:    []string{},
			touched:          map[string]struct{}{},
		}
	}

	churn := make([]map[string]int, len(windows))
	for i := range churn {
		churn[i] = map[string]int{}
	}

	for _, c := range commits {
		i := windowIndex(c.Timestamp, opts.Now, size, len(windows))
		if i < 0 {
			continue
		}
		w := &windows[i]
		w.TotalCommits++
		w.TypeDistribution[string(typeOf(c))]++
		if c.Type == temporal.TypeFix {
			w.fixes++
		}
		for _, fc := range c.Files {
			churn[i][fc.Path] += fc.Churn()
			w.touched[fc.Path] = struct{}{}
		}
	}

	for i := range windows {
		windows[i].Velocity = float64(windows[i].TotalCommits) / float64(opts.WindowDays)
		windows[i].TopChurnFiles = topChurn(churn[i], opts.TopChurn)
	}

	return &Result{
		Windows:        windows,
		WindowCount:    opts.Windows,
		WindowSizeDays: opts.WindowDays,
		Deltas:         deltas(windows),
		DormantFiles:   dormant(windows),
	}, nil
}

// windowIndex returns the window containing t, or -1. Window i is
// [now-(i+1)*size, now-i*size).
func windowIndex(t, now time.Time, size time.Duration, n int) int {
	age := now.Sub(t)
	if age <= 0 {
		return -1
	}
	i := int((age - 1) / size)
	if i >= n {
		return -1
	}
	return i
}

func typeOf(c temporal.Commit) temporal.CommitType {
	if c.Type == temporal.TypeUnset {
		return temporal.TypeOther
	}
	return c.Type
}

// topChurn returns the k paths with the highest churn, ties by path
func topChurn(churn map[string]int, k int) []string {
	paths := make([]string, 0, len(churn))
	for p := range churn {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if churn[paths[i]] != churn[paths[j]] {
			return churn[paths[i]] > churn[paths[j]]
		}
		return paths[i] < paths[j]
	})
	if len(paths) > k {
		paths = paths[:k]
	}
	return paths
}

func deltas(windows []Window) Deltas {
	if len(windows) < 2 {
		return Deltas{CommitTrend: Stable, FixRateTrend: Stable}
	}
	latest, previous := windows[0], windows[1]
	return Deltas{
		CommitTrend:  Compare(float64(latest.TotalCommits), float64(previous.TotalCommits)),
		FixRateTrend: Compare(fixRate(latest), fixRate(previous)),
	}
}

func fixRate(w Window) float64 {
	if w.TotalCommits == 0 {
		return 0
	}
	return float64(w.fixes) / float64(w.TotalCommits)
}

// Compare labels the change from previous to latest. Values within 10% of
// the larger one are stable.
func Compare(latest, previous float64) Direction {
	diff := latest - previous
	if diff < 0 {
		diff = -diff
	}
	if diff <= stableTolerance*max(latest, previous) {
		return Stable
	}
	if latest > previous {
		return Increasing
	}
	return Decreasing
}

// dormant returns files touched in an older window but not in window 0
func dormant(windows []Window) []string {
	out := []string{}
	if len(windows) == 0 {
		return out
	}
	recent := windows[0].touched
	seen := map[string]struct{}{}
	for _, w := range windows[1:] {
		for p := range w.touched {
			if _, ok := recent[p]; ok {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
