package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/metrics"
)

var (
	hotspotDepthFlag int
	authorDepthFlag  int
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Commit type distribution, daily activity, velocity and ticket references",
	Args:  cobra.NoArgs,
	RunE:  runMetrics,
}

var churnCmd = &cobra.Command{
	Use:   "churn",
	Short: "Files ranked by lines added plus removed",
	Args:  cobra.NoArgs,
	RunE:  runChurn,
}

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "Directories ranked by churn",
	Args:  cobra.NoArgs,
	RunE:  runHotspots,
}

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "Authors per directory, top contributor and bus factor",
	Args:  cobra.NoArgs,
	RunE:  runAuthors,
}

func init() {
	hotspotsCmd.Flags().IntVar(&hotspotDepthFlag, "depth", 1, "directory depth to aggregate at")
	authorsCmd.Flags().IntVar(&authorDepthFlag, "depth", 1, "directory depth to aggregate at")
}

func checkDepth(depth int) error {
	if depth < 1 {
		return errors.InvalidParam("depth", "--depth must be at least 1 (got %d)", depth)
	}
	return nil
}

func runMetrics(cmd *cobra.Command, args []string) error {
	n := limit()
	return runQuery(cmd, query{
		name:  "metrics",
		extra: []string{fmt.Sprintf("limit=%d", n)},
		run: func(ctx context.Context, s *session) (interface{}, int, error) {
			commits, err := s.commits(ctx, s.rng)
			if err != nil {
				return nil, 0, err
			}
			return metrics.Summarize(commits, n), len(commits), nil
		},
	})
}

func runChurn(cmd *cobra.Command, args []string) error {
	n := limit()
	return runQuery(cmd, query{
		name:  "churn",
		extra: []string{fmt.Sprintf("limit=%d", n)},
		run: func(ctx context.Context, s *session) (interface{}, int, error) {
			commits, err := s.commits(ctx, s.rng)
			if err != nil {
				return nil, 0, err
			}
			return metrics.Churn(commits, n), len(commits), nil
		},
	})
}

func runHotspots(cmd *cobra.Command, args []string) error {
	n, depth := limit(), hotspotDepthFlag
	if err := checkDepth(depth); err != nil {
		return err
	}
	return runQuery(cmd, query{
		name:  "hotspots",
		extra: []string{fmt.Sprintf("limit=%d depth=%d", n, depth)},
		run: func(ctx context.Context, s *session) (interface{}, int, error) {
			commits, err := s.commits(ctx, s.rng)
			if err != nil {
				return nil, 0, err
			}
			return metrics.Hotspots(commits, depth, n), len(commits), nil
		},
	})
}

func runAuthors(cmd *cobra.Command, args []string) error {
	n, depth := limit(), authorDepthFlag
	if err := checkDepth(depth); err != nil {
		return err
	}
	return runQuery(cmd, query{
		name:  "authors",
		extra: []string{fmt.Sprintf("limit=%d depth=%d", n, depth)},
		run: func(ctx context.Context, s *session) (interface{}, int, error) {
			commits, err := s.commits(ctx, s.rng)
			if err != nil {
				return nil, 0, err
			}
			return metrics.Authors(commits, depth, n), len(commits), nil
		},
	})
}
