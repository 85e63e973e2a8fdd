package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/temporal"
	"github.com/rohankatakam/gitintel/internal/trends"
)

var (
	windowsFlag    int
	windowDaysFlag int
	topChurnFlag   int
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Commit volume, type mix and churn across consecutive time windows",
	Long: `Partition recent history into equal windows ending at the top of the
next UTC hour (newest first), summarize each window, compare the newest two
and list files that went dormant. --since and --until do not apply: the
windows define the range.`,
	Args: cobra.NoArgs,
	RunE: runTrends,
}

func init() {
	trendsCmd.Flags().IntVar(&windowsFlag, "windows", trends.DefaultWindows, "number of windows")
	trendsCmd.Flags().IntVar(&windowDaysFlag, "window-days", trends.DefaultWindowDays, "days per window")
	trendsCmd.Flags().IntVar(&topChurnFlag, "top-churn", trends.DefaultTopChurn, "churn files listed per window")
}

func runTrends(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	opts := trends.Options{
		Windows:    cfg.Trends.Windows,
		WindowDays: cfg.Trends.WindowDays,
		TopChurn:   cfg.Trends.TopChurn,
	}
	if f.Changed("windows") {
		opts.Windows = windowsFlag
	}
	if f.Changed("window-days") {
		opts.WindowDays = windowDaysFlag
	}
	if f.Changed("top-churn") {
		opts.TopChurn = topChurnFlag
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	opts.Now = trendsAnchor(time.Now())
	return runQuery(cmd, query{
		name: "trends",
		rng:  &temporal.Range{},
		extra: []string{
			fmt.Sprintf("windows=%d window_days=%d top_churn=%d", opts.Windows, opts.WindowDays, opts.TopChurn),
			"until=" + opts.Now.Format(time.RFC3339),
		},
		run: func(ctx context.Context, s *session) (interface{}, int, error) {
			since, _ := opts.Span()
			ts := since.Unix()
			commits, err := s.commits(ctx, temporal.Range{Since: &ts})
			if err != nil {
				return nil, 0, err
			}
			result, err := trends.Analyze(commits, opts)
			if err != nil {
				return nil, 0, err
			}
			return result, len(commits), nil
		},
	})
}

// trendsAnchor is the end of the newest window: the next whole UTC hour.
// Every query within one hour sees the same windows, so a cached result is
// exact for its key, and commits up to now are still inside window 0.
func trendsAnchor(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour).Add(time.Hour)
}
