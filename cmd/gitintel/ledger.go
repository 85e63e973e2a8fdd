package main

import (
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/storage"
)

var ledgerRunFlag string

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List recent runs recorded for this repository",
	Long: `Every result-producing command records a run in the ledger: the
subcommand, cache key, HEAD, whether the cache answered, and the signals
reported. Use --run to show one run with its signals.`,
	Args: cobra.NoArgs,
	RunE: runLedger,
}

func init() {
	ledgerCmd.Flags().StringVar(&ledgerRunFlag, "run", "", "show a single run and its signals")
}

type ledgerRun struct {
	*storage.Run
	Signals []*storage.RunSignal `json:"signals"`
}

func runLedger(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession()
	if err != nil {
		return err
	}
	store, err := s.openLedger()
	if err != nil {
		return errors.DatabaseError(err, "failed to open run ledger")
	}
	defer store.Close()

	if ledgerRunFlag != "" {
		run, err := store.GetRun(ctx, ledgerRunFlag)
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				return errors.InvalidParam("run", "no run with id %q", ledgerRunFlag)
			}
			return errors.DatabaseError(err, "failed to read run")
		}
		signals, err := store.RunSignals(ctx, run.ID)
		if err != nil {
			return errors.DatabaseError(err, "failed to read run signals")
		}
		return render(cmd, ledgerRun{Run: run, Signals: signals})
	}

	runs, err := store.RecentRuns(ctx, s.repo.Root(), limit())
	if err != nil {
		return errors.DatabaseError(err, "failed to list runs")
	}
	return render(cmd, map[string]interface{}{
		"repo": s.repo.Root(),
		"runs": runs,
	})
}
