package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/patterns"
)

var (
	lookbackFlag          int
	patternDepthFlag      int
	gravityThresholdFlag  float64
	gravityMinCommitsFlag int
	convergenceLimitFlag  int
	minSeverityFlag       float64
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Fix-after sequences, edit chains, clusters, convergence and signals",
	Long: `Detect temporal patterns in the classified history: fixes that follow a
feature or refactor within the lookback window, files and directories edited
repeatedly, bursts of same-type commits, files converging in size, and the
scored signals derived from the fix-after sequences.`,
	Args: cobra.NoArgs,
	RunE: runPatterns,
}

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Scored fix-after-feat and fix-after-refactor signals",
	Args:  cobra.NoArgs,
	RunE:  runSignals,
}

func init() {
	for _, cmd := range []*cobra.Command{patternsCmd, signalsCmd} {
		f := cmd.Flags()
		f.IntVar(&lookbackFlag, "lookback", patterns.DefaultLookback, "commits to look back from a fix for its trigger")
		f.IntVar(&patternDepthFlag, "depth", patterns.DefaultDirectoryDepth, "directory depth for directory chains")
		f.Float64Var(&gravityThresholdFlag, "gravity-threshold", patterns.DefaultGravityThreshold, "fraction of commits above which a file is ignored by signals")
		f.IntVar(&gravityMinCommitsFlag, "gravity-min-commits", patterns.DefaultGravityMinCommits, "minimum history size before gravity files are computed")
		f.IntVar(&convergenceLimitFlag, "convergence-limit", patterns.DefaultConvergenceLimit, "maximum convergence pairs")
	}
	signalsCmd.Flags().Float64Var(&minSeverityFlag, "min-severity", 0, "drop signals scoring below this severity")
}

// detectorOptions merges the config file with explicit flags
func detectorOptions(cmd *cobra.Command) patterns.Options {
	opts := patterns.Options{
		Lookback:            cfg.Signals.Lookback,
		Limit:               limit(),
		GravityThreshold:    cfg.Signals.GravityThreshold,
		GravityMinCommits:   cfg.Signals.GravityMinCommits,
		MultiEditMinCommits: cfg.Patterns.MultiEditMinCommits,
		MultiEditMinChurn:   cfg.Patterns.MultiEditMinChurn,
		DirectoryDepth:      cfg.Patterns.DirectoryDepth,
		DirectoryMinCommits: cfg.Patterns.DirectoryMinCommits,
		ClusterMinCommits:   cfg.Patterns.ClusterMinCommits,
		ClusterWindow:       cfg.Patterns.ClusterWindow,
		ConvergenceLimit:    cfg.Patterns.ConvergenceLimit,
		ConvergenceMinBytes: cfg.Patterns.ConvergenceMinBytes,
		Feat:                patterns.Tuning{Weight: cfg.Signals.FeatWeight, MinSeverity: cfg.Signals.FeatMinSeverity},
		Refactor:            patterns.Tuning{Weight: cfg.Signals.RefactorWeight, MinSeverity: cfg.Signals.RefactorMinSeverity},
	}

	f := cmd.Flags()
	if f.Changed("lookback") {
		opts.Lookback = lookbackFlag
	}
	if f.Changed("depth") {
		opts.DirectoryDepth = patternDepthFlag
	}
	if f.Changed("gravity-threshold") {
		opts.GravityThreshold = gravityThresholdFlag
	}
	if f.Changed("gravity-min-commits") {
		opts.GravityMinCommits = gravityMinCommitsFlag
	}
	if f.Changed("convergence-limit") {
		opts.ConvergenceLimit = convergenceLimitFlag
	}
	if f.Changed("min-severity") {
		opts.Feat.MinSeverity = minSeverityFlag
		opts.Refactor.MinSeverity = minSeverityFlag
	}
	return opts
}

func runPatterns(cmd *cobra.Command, args []string) error {
	opts := detectorOptions(cmd)
	if err := opts.Validate(); err != nil {
		return err
	}

	return runQuery(cmd, query{
		name:  "patterns",
		extra: []string{fmt.Sprintf("%+v", opts)},
		run: func(ctx context.Context, s *session) (interface{}, int, error) {
			commits, err := s.commits(ctx, s.rng)
			if err != nil {
				return nil, 0, err
			}
			detector := patterns.NewDetector(opts)
			result := detector.Detect(commits)

			if s.head != "" {
				sizes, err := s.repo.BlobSizes(ctx)
				if err != nil {
					logger.WithError(err).Debug("Failed to read HEAD tree, convergence skipped")
				} else {
					detector.AttachConvergence(result, sizes)
				}
			}
			return result, len(commits), nil
		},
	})
}

func runSignals(cmd *cobra.Command, args []string) error {
	opts := detectorOptions(cmd)
	if err := opts.Validate(); err != nil {
		return err
	}

	return runQuery(cmd, query{
		name:  "signals",
		extra: []string{fmt.Sprintf("%+v", opts)},
		run: func(ctx context.Context, s *session) (interface{}, int, error) {
			commits, err := s.commits(ctx, s.rng)
			if err != nil {
				return nil, 0, err
			}
			return patterns.NewDetector(opts).Detect(commits).SignalsOnly(), len(commits), nil
		},
	})
}
