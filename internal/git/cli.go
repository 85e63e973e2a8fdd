package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

// walkCLI produces the same records as Walk by parsing `git log --numstat`
// from the git binary. Merge commits are diffed against their first parent.
func (r *Repository) walkCLI(ctx context.Context, opts WalkOptions) ([]temporal.Commit, error) {
	args := []string{
		"-c", "core.quotePath=false",
		"log", "HEAD",
		"--numstat",
		"--no-renames",
		"--diff-merges=first-parent",
		"--pretty=format:" + recordSep + "%H" + fieldSep + "%P" + fieldSep + "%an" + fieldSep + "%ae" + fieldSep + "%ct" + fieldSep + "%B" + fieldSep,
	}
	if opts.Range.Since != nil {
		args = append(args, "--since="+time.Unix(*opts.Range.Since, 0).UTC().Format(time.RFC3339))
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if strings.Contains(stderr.String(), "does not have any commits") {
			return nil, ErrEmptyRepository
		}
		return nil, fmt.Errorf("git log failed: %w (output: %s)", err, strings.TrimSpace(stderr.String()))
	}

	parsed, err := parseGitLogOutput(string(output))
	if err != nil {
		return nil, err
	}

	commits := make([]temporal.Commit, 0, len(parsed))
	for _, c := range parsed {
		if !opts.Range.Contains(c.Timestamp) {
			continue
		}
		c.Author, c.Email = r.mailmap.Resolve(c.Author, c.Email)
		c.Files = opts.Excluder.Filter(c.Files)
		commits = append(commits, c)
	}

	sort.SliceStable(commits, func(i, j int) bool {
		return newer(commits[i].Timestamp.Unix(), commits[j].Timestamp.Unix(), commits[i].ID, commits[j].ID)
	})

	r.logger.Debug("history walked", "backend", BackendCLI, "commits", len(commits))
	return commits, nil
}

// parseGitLogOutput parses records of the form
// RS hash US parents US name US email US ctime US body US \n numstat lines
func parseGitLogOutput(output string) ([]temporal.Commit, error) {
	var commits []temporal.Commit

	for _, record := range strings.Split(output, recordSep) {
		if strings.TrimSpace(record) == "" {
			continue
		}

		parts := strings.SplitN(record, fieldSep, 7)
		if len(parts) != 7 {
			return nil, fmt.Errorf("malformed git log record (%d fields)", len(parts))
		}

		ctime, err := strconv.ParseInt(parts[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid commit time %q for %s: %w", parts[4], parts[0], err)
		}

		c := temporal.Commit{
			ID:        parts[0],
			ParentIDs: strings.Fields(parts[1]),
			Author:    parts[2],
			Email:     parts[3],
			Timestamp: time.Unix(ctime, 0).UTC(),
			Message:   parts[5],
		}
		if c.ParentIDs == nil {
			c.ParentIDs = []string{}
		}

		files, err := parseNumstat(parts[6])
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", parts[0], err)
		}
		c.Files = temporal.MergeFileChanges(files)
		commits = append(commits, c)
	}

	return commits, nil
}

// parseNumstat reads "additions<TAB>deletions<TAB>path" lines. Binary files
// ("-" counts) are kept with zero counts.
func parseNumstat(block string) ([]temporal.FileChange, error) {
	files := []temporal.FileChange{}
	scanner := bufio.NewScanner(strings.NewReader(block))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			continue
		}
		additions, _ := strconv.Atoi(fields[0])
		deletions, _ := strconv.Atoi(fields[1])
		files = append(files, temporal.FileChange{
			Path:      fields[2],
			Additions: additions,
			Deletions: deletions,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning numstat output: %w", err)
	}
	return files, nil
}
