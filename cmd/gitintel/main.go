package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/config"
	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config

	// query flags shared by every subcommand
	repoPath       string
	sinceFlag      string
	untilFlag      string
	limitFlag      int
	formatFlag     string
	noCache        bool
	modelFlag      string
	modelDirFlag   string
	modelThreshold float64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if param, ok := errors.Param(err); ok {
			fmt.Fprintf(os.Stderr, "Parameter: --%s\n", param)
		}
		if verbose {
			var e *errors.Error
			if stderrors.As(err, &e) {
				fmt.Fprintln(os.Stderr, e.DetailedString())
			}
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gitintel",
	Short: "gitintel - git history intelligence for hooks and dashboards",
	Long: `gitintel walks a repository's commit history and reports commit-type
distributions, file churn, ownership, trend windows and regression-risk
signals (fixes that closely follow a feature or refactor) as JSON.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.WarnLevel)
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			if cfgFile != "" {
				return errors.InvalidParam("config", "failed to load %s: %v", cfgFile, err)
			}
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}

		if err := logging.Initialize(logging.CLIConfig(verbose, cfg.Logging.File, cfg.Logging.JSON)); err != nil {
			logger.WithError(err).Warn("Failed to initialize log file")
		}

		return applyFlagOverrides(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: .gitintel/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (diagnostics on stderr)")
	flags.StringVar(&repoPath, "repo", ".", "path inside the git repository to analyze")
	flags.StringVar(&sinceFlag, "since", "", "only commits on or after this day (YYYY-MM-DD or 30d, 4w, 6m, 1y)")
	flags.StringVar(&untilFlag, "until", "", "only commits on or before this day (YYYY-MM-DD or relative)")
	flags.IntVar(&limitFlag, "limit", 10, "maximum number of items per list")
	flags.StringVar(&formatFlag, "format", "json", "output format: json, yaml or text")
	flags.BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	flags.StringVar(&modelFlag, "model", "", "statistical classifier: none, local, openai or gemini")
	flags.StringVar(&modelDirFlag, "model-dir", "", "directory of the local model files")
	flags.Float64Var(&modelThreshold, "model-threshold", 0.5, "minimum model confidence to accept a label")

	// Set custom version template
	rootCmd.SetVersionTemplate(`gitintel {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	// Add subcommands
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(churnCmd)
	rootCmd.AddCommand(hotspotsCmd)
	rootCmd.AddCommand(authorsCmd)
	rootCmd.AddCommand(lifecycleCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(configureCmd)
}

// applyFlagOverrides lets explicit command-line flags win over the config
// file, then validates the result for query commands.
func applyFlagOverrides(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("limit") {
		cfg.Query.Limit = limitFlag
	}
	if flags.Changed("no-cache") && noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("model") {
		cfg.Classifier.Model = modelFlag
	}
	if flags.Changed("model-dir") {
		cfg.Classifier.ModelDir = modelDirFlag
	}
	if flags.Changed("model-threshold") {
		cfg.Classifier.Threshold = modelThreshold
	}

	if cfg.Query.Limit < 0 {
		return errors.InvalidParam("limit", "--limit must not be negative (got %d)", cfg.Query.Limit)
	}
	if cfg.Classifier.Threshold < 0 || cfg.Classifier.Threshold > 1 {
		return errors.InvalidParam("model-threshold", "--model-threshold must be in [0, 1] (got %g)", cfg.Classifier.Threshold)
	}

	result := cfg.Validate(config.ValidationContextQuery)
	for _, w := range result.Warnings {
		logger.Debug(w)
	}
	return result.Err()
}
