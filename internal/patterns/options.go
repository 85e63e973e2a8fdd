// Package patterns scans a classified commit history for temporal patterns
// (fix-after-feat/refactor sequences, repeated edits, bursts of same-type
// commits, converging file sizes) and turns the fix-after sequences into
// scored, filtered signals.
package patterns

import (
	"time"

	"github.com/rohankatakam/gitintel/internal/errors"
)

// Defaults used when a caller leaves a knob unset
const (
	DefaultLookback            = 5
	DefaultLimit               = 10
	DefaultGravityThreshold    = 0.15
	DefaultGravityMinCommits   = 20
	DefaultMultiEditMinCommits = 3
	DefaultMultiEditMinChurn   = 100
	DefaultDirectoryDepth      = 2
	DefaultDirectoryMinCommits = 3
	DefaultClusterMinCommits   = 3
	DefaultClusterWindow       = time.Hour
	DefaultConvergenceLimit    = 50
	DefaultConvergenceMinBytes = 500
)

// Tuning adjusts one signal kind independently of the other
type Tuning struct {
	Weight      float64 // multiplies severity, clamped to [0,1]
	MinSeverity float64 // signals scoring below this are dropped
}

// Options configures a Detector
type Options struct {
	Lookback int
	Limit    int

	GravityThreshold  float64
	GravityMinCommits int

	MultiEditMinCommits int
	MultiEditMinChurn   int

	DirectoryDepth      int
	DirectoryMinCommits int

	ClusterMinCommits int
	ClusterWindow     time.Duration

	ConvergenceLimit    int
	ConvergenceMinBytes int64

	Feat     Tuning
	Refactor Tuning
}

// DefaultOptions returns the documented defaults
func DefaultOptions() Options {
	return Options{
		Lookback:            DefaultLookback,
		Limit:               DefaultLimit,
		GravityThreshold:    DefaultGravityThreshold,
		GravityMinCommits:   DefaultGravityMinCommits,
		MultiEditMinCommits: DefaultMultiEditMinCommits,
		MultiEditMinChurn:   DefaultMultiEditMinChurn,
		DirectoryDepth:      DefaultDirectoryDepth,
		DirectoryMinCommits: DefaultDirectoryMinCommits,
		ClusterMinCommits:   DefaultClusterMinCommits,
		ClusterWindow:       DefaultClusterWindow,
		ConvergenceLimit:    DefaultConvergenceLimit,
		ConvergenceMinBytes: DefaultConvergenceMinBytes,
		Feat:                Tuning{Weight: 1.0},
		Refactor:            Tuning{Weight: 1.0},
	}
}

// Validate rejects option values that would change query semantics silently.
// Parameter names match the command-line flags.
func (o Options) Validate() error {
	if o.Lookback < 1 {
		return errors.InvalidParam("lookback", "--lookback must be at least 1 (got %d)", o.Lookback)
	}
	if o.Limit < 0 {
		return errors.InvalidParam("limit", "--limit must not be negative (got %d)", o.Limit)
	}
	if o.GravityThreshold <= 0 || o.GravityThreshold > 1 {
		return errors.InvalidParam("gravity-threshold", "--gravity-threshold must be in (0, 1] (got %g)", o.GravityThreshold)
	}
	if o.GravityMinCommits < 1 {
		return errors.InvalidParam("gravity-min-commits", "--gravity-min-commits must be at least 1 (got %d)", o.GravityMinCommits)
	}
	if o.DirectoryDepth < 0 {
		return errors.InvalidParam("depth", "--depth must not be negative (got %d)", o.DirectoryDepth)
	}
	if o.ConvergenceLimit < 0 {
		return errors.InvalidParam("convergence-limit", "--convergence-limit must not be negative (got %d)", o.ConvergenceLimit)
	}
	for kind, t := range map[Kind]Tuning{KindFixAfterFeat: o.Feat, KindFixAfterRefactor: o.Refactor} {
		if t.MinSeverity < 0 || t.MinSeverity > 1 {
			return errors.InvalidParam("min-severity", "--min-severity for %s must be in [0, 1] (got %g)", kind, t.MinSeverity)
		}
	}
	return nil
}

func (o Options) tuning(kind Kind) Tuning {
	if kind == KindFixAfterRefactor {
		return o.Refactor
	}
	return o.Feat
}
