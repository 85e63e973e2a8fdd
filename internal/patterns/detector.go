package patterns

import (
	"log/slog"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// Result is the pattern document for one query
type Result struct {
	FixAfterFeat         []FixAfter        `json:"fix_after_feat" yaml:"fix_after_feat"`
	FixAfterRefactor     []FixAfter        `json:"fix_after_refactor" yaml:"fix_after_refactor"`
	MultiEditChains      []MultiEditChain  `json:"multi_edit_chains" yaml:"multi_edit_chains"`
	DirectoryChains      []DirectoryChain  `json:"directory_chains" yaml:"directory_chains"`
	TemporalClusters     []TemporalCluster `json:"temporal_clusters" yaml:"temporal_clusters"`
	Convergence          []ConvergencePair `json:"convergence" yaml:"convergence"`
	ConvergenceTruncated bool              `json:"convergence_truncated" yaml:"convergence_truncated"`
	ConvergenceLimit     int               `json:"convergence_limit" yaml:"convergence_limit"`
	Signals              []Signal          `json:"signals" yaml:"signals"`
	GravityFiles         []string          `json:"gravity_files" yaml:"gravity_files"`
	TotalCommitsAnalyzed int               `json:"total_commits_analyzed" yaml:"total_commits_analyzed"`
}

// SignalsResult is the reduced document of the signals command
type SignalsResult struct {
	Signals              []Signal `json:"signals" yaml:"signals"`
	GravityFiles         []string `json:"gravity_files" yaml:"gravity_files"`
	TotalCommitsAnalyzed int      `json:"total_commits_analyzed" yaml:"total_commits_analyzed"`
}

// Detector runs every pattern family over one classified history
type Detector struct {
	opts   Options
	logger *slog.Logger
}

// NewDetector creates a detector. Options are expected to be validated.
func NewDetector(opts Options) *Detector {
	return &Detector{
		opts:   opts,
		logger: slog.Default().With("component", "patterns"),
	}
}

// Detect analyzes classified commits in any order; the detector orders them
// chronologically itself. Convergence is filled in separately by
// AttachConvergence because it reads the HEAD tree rather than history.
func (d *Detector) Detect(commits []temporal.Commit) *Result {
	chrono := temporal.Chronological(commits)
	gravity := ComputeGravity(chrono, d.opts.GravityThreshold, d.opts.GravityMinCommits)

	candidates := findCandidates(chrono, d.opts.Lookback)
	feat, refactor := rawFixAfter(candidates)
	signals := buildSignals(candidates, gravity, d.opts)

	// newest first, matching the commit source
	histories := buildFileHistories(temporal.NewestFirst(commits))

	result := &Result{
		FixAfterFeat:         feat,
		FixAfterRefactor:     refactor,
		MultiEditChains:      multiEditChains(histories, d.opts.MultiEditMinCommits, d.opts.MultiEditMinChurn, d.opts.Limit),
		DirectoryChains:      directoryChains(histories, d.opts.DirectoryDepth, d.opts.DirectoryMinCommits, d.opts.Limit),
		TemporalClusters:     temporalClusters(chrono, d.opts.ClusterMinCommits, d.opts.ClusterWindow),
		Convergence:          []ConvergencePair{},
		ConvergenceLimit:     d.opts.ConvergenceLimit,
		Signals:              signals,
		GravityFiles:         gravity.Paths(),
		TotalCommitsAnalyzed: len(commits),
	}

	d.logger.Debug("patterns detected",
		"commits", len(commits),
		"gravity_files", gravity.Len(),
		"candidates", len(candidates),
		"signals", len(signals),
	)
	return result
}

// AttachConvergence computes convergence pairs from HEAD blob sizes. The
// generic limit applies when it is smaller than the convergence limit.
func (d *Detector) AttachConvergence(result *Result, sizes map[string]int64) {
	limit := d.opts.ConvergenceLimit
	if d.opts.Limit < limit {
		limit = d.opts.Limit
	}
	result.Convergence, result.ConvergenceTruncated = Convergence(sizes, d.opts.ConvergenceMinBytes, limit)
	result.ConvergenceLimit = d.opts.ConvergenceLimit
}

// SignalsOnly reduces a result to the signals document
func (r *Result) SignalsOnly() *SignalsResult {
	return &SignalsResult{
		Signals:              r.Signals,
		GravityFiles:         r.GravityFiles,
		TotalCommitsAnalyzed: r.TotalCommitsAnalyzed,
	}
}
