package main

import (
	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/cache"
	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/git"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the cache directory, entry count and size",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached result (the diff-stat memo and ledger are kept)",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func cacheManager() (*cache.Manager, error) {
	dir := cfg.Cache.Directory
	if dir == "" {
		repo, err := git.Open(repoPath)
		if err != nil {
			return nil, err
		}
		dir = cache.DefaultDirectory(repo.GitDir())
	}
	return cache.NewManager(cache.Options{Directory: dir, Compress: cfg.Cache.Compress}, logger), nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	m, err := cacheManager()
	if err != nil {
		return err
	}
	stats, err := m.Stats()
	if err != nil {
		return errors.FileSystemError(err, "failed to read cache")
	}
	return render(cmd, stats)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	m, err := cacheManager()
	if err != nil {
		return err
	}
	removed, err := m.Clear()
	if err != nil {
		return errors.FileSystemError(err, "failed to clear cache")
	}
	return render(cmd, map[string]interface{}{
		"directory": m.Directory(),
		"removed":   removed,
	})
}
