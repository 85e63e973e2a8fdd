package git

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

const statsBucket = "diffstats"

// StatStore memoizes per-commit diff stats across runs. Commits are
// immutable, so entries never need invalidation.
type StatStore struct {
	db *bolt.DB
}

// OpenStatStore opens (or creates) the memo at path. The lock timeout is
// short: a concurrent gitintel process holding the memo makes this run skip it.
func OpenStatStore(path string) (*StatStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating memo directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 200 * time.Millisecond})
	if err != nil {
		return nil, fmt.Errorf("opening diff-stat memo %s: %w", path, err)
	}
	return &StatStore{db: db}, nil
}

// Get returns the memoized file changes for a commit
func (s *StatStore) Get(commitID string) ([]temporal.FileChange, bool) {
	var changes []temporal.FileChange
	found := false
	s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(statsBucket))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(commitID))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &changes); err != nil {
			return nil
		}
		found = true
		return nil
	})
	return changes, found
}

// PutAll stores stats for many commits in one transaction
func (s *StatStore) PutAll(stats map[string][]temporal.FileChange) error {
	if len(stats) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(statsBucket))
		if err != nil {
			return err
		}
		for id, changes := range stats {
			if changes == nil {
				changes = []temporal.FileChange{}
			}
			data, err := json.Marshal(changes)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len returns the number of memoized commits
func (s *StatStore) Len() int {
	n := 0
	s.db.View(func(tx *bolt.Tx) error {
		if bucket := tx.Bucket([]byte(statsBucket)); bucket != nil {
			n = bucket.Stats().KeyN
		}
		return nil
	})
	return n
}

// Close closes the underlying database
func (s *StatStore) Close() error {
	return s.db.Close()
}
