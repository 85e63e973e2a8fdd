package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/metrics"
)

var lifecycleCmd = &cobra.Command{
	Use:   "lifecycle <files...>",
	Short: "Track specific files across commits (growth, shrinkage, survival)",
	Long: `For each file, list the commits that touched it, newest first, with the
line count after each commit and whether the commit created, deleted, grew,
shrunk or otherwise modified it, plus the line count at HEAD.`,
	RunE: runLifecycle,
}

func runLifecycle(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.InvalidParam("files", "lifecycle requires at least one file path")
	}

	return runQuery(cmd, query{
		name:  "lifecycle",
		files: args,
		run: func(ctx context.Context, s *session) (interface{}, int, error) {
			commits, err := s.commits(ctx, s.rng)
			if err != nil {
				return nil, 0, err
			}
			report, err := metrics.Lifecycle(commits, args, s.repo)
			if err != nil {
				return nil, 0, err
			}
			return report, len(commits), nil
		},
	})
}
