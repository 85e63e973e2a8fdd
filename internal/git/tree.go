package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// BlobSizes returns the size in bytes of every file in the HEAD tree
func (r *Repository) BlobSizes(ctx context.Context) (map[string]int64, error) {
	head, err := r.headHash()
	if err != nil {
		return nil, err
	}
	commit, err := r.repo.CommitObject(head)
	if err != nil {
		return nil, fmt.Errorf("getting commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}

	sizes := make(map[string]int64)
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sizes[f.Name] = f.Size
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sizes, nil
}

// LineCount returns the number of lines of path at the given commit. ok is
// false when the file does not exist there or is not valid UTF-8 text.
func (r *Repository) LineCount(commitID, path string) (int, bool, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(commitID))
	if err != nil {
		return 0, false, fmt.Errorf("getting commit %s: %w", commitID, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return 0, false, fmt.Errorf("getting tree: %w", err)
	}

	f, err := tree.File(path)
	if err != nil {
		if stderrors.Is(err, object.ErrFileNotFound) || stderrors.Is(err, object.ErrDirectoryNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("getting file %s: %w", path, err)
	}

	reader, err := f.Reader()
	if err != nil {
		return 0, false, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return 0, false, fmt.Errorf("reading file %s: %w", path, err)
	}
	if !utf8.Valid(content) {
		return 0, false, nil
	}
	return countLines(string(content)), true, nil
}

// countLines counts lines the way a line iterator does: a trailing newline
// does not start a new line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
