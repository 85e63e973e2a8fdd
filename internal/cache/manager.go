// Package cache memoizes query results on disk, bound to the HEAD commit
// they were computed at.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

// DirName is the cache directory inside the git directory
const DirName = "git-intel-cache"

const zstdSuffix = ".zst"

// Entry is the on-disk form of a cached result
type Entry struct {
	HeadCommit string          `json:"head_commit"`
	ComputedAt time.Time       `json:"computed_at"`
	Result     json.RawMessage `json:"result"`
}

// Options configures a Manager
type Options struct {
	Directory string
	Compress  bool
}

// Manager handles cache operations. Read and write failures are logged at
// debug level and otherwise treated as a miss.
type Manager struct {
	dir      string
	compress bool
	logger   *logrus.Logger
	now      func() time.Time
}

// DefaultDirectory returns the cache directory for a repository
func DefaultDirectory(gitDir string) string {
	return filepath.Join(gitDir, DirName)
}

// NewManager creates a new cache manager
func NewManager(opts Options, logger *logrus.Logger) *Manager {
	return &Manager{
		dir:      opts.Directory,
		compress: opts.Compress,
		logger:   logger,
		now:      time.Now,
	}
}

// Directory returns the cache directory
func (m *Manager) Directory() string {
	return m.dir
}

// Get returns the cached payload for key if it was computed at head
func (m *Manager) Get(key, head string) ([]byte, bool) {
	log := m.logger.WithField("key", key)

	entry, err := m.read(key)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Debug("cache entry unreadable")
		}
		return nil, false
	}
	if entry.HeadCommit != head {
		log.WithField("cached_head", entry.HeadCommit).Debug("cache entry stale")
		return nil, false
	}

	log.Debug("cache hit")
	return entry.Result, true
}

// Put stores payload for key at head, replacing any previous entry
// atomically. Failures are not reported to the caller. The payload must be
// compact JSON as produced by json.Marshal so a later hit returns the same
// bytes.
func (m *Manager) Put(key, head string, payload []byte) {
	log := m.logger.WithField("key", key)

	entry := &Entry{
		HeadCommit: head,
		ComputedAt: m.now().UTC(),
		Result:     json.RawMessage(payload),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.WithError(err).Debug("cache entry not encodable")
		return
	}
	if m.compress {
		if data, err = compress(data); err != nil {
			log.WithError(err).Debug("cache compression failed")
			return
		}
	}

	if err := m.writeAtomic(m.path(key), data); err != nil {
		log.WithError(err).Debug("cache write failed")
		return
	}
	log.Debug("cache entry written")
}

func (m *Manager) path(key string) string {
	p := filepath.Join(m.dir, key)
	if m.compress {
		p += zstdSuffix
	}
	return p
}

func (m *Manager) read(key string) (*Entry, error) {
	data, err := os.ReadFile(m.path(key))
	if err != nil {
		return nil, err
	}
	if m.compress {
		if data, err = decompress(data); err != nil {
			return nil, err
		}
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}
	if entry.HeadCommit == "" || len(entry.Result) == 0 {
		return nil, fmt.Errorf("incomplete cache entry")
	}
	return &entry, nil
}

// writeAtomic writes to a temp file in the cache directory, syncs it and
// renames it over the final name. Readers see the old or the new entry,
// never a partial one.
func (m *Manager) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(m.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	return os.Rename(tmpName, path)
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// Stats describes the cache directory
type Stats struct {
	Directory  string `json:"directory" yaml:"directory"`
	Entries    int    `json:"entries" yaml:"entries"`
	Compressed int    `json:"compressed" yaml:"compressed"`
	Bytes      int64  `json:"bytes" yaml:"bytes"`
}

// Stats counts result entries and their total size. Other files in the
// directory (the diff-stat memo, leftover temp files) are not counted.
func (m *Manager) Stats() (*Stats, error) {
	stats := &Stats{Directory: m.dir}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !isEntryName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.Bytes += info.Size()
		if strings.HasSuffix(e.Name(), zstdSuffix) {
			stats.Compressed++
		}
	}
	return stats, nil
}

// Clear removes every result entry and returns how many were removed
func (m *Manager) Clear() (int, error) {
	m.logger.WithField("directory", m.dir).Info("Clearing result cache")

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !(isEntryName(e.Name()) || strings.HasPrefix(e.Name(), ".tmp-")) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to clear cache: %w", err)
		}
		if isEntryName(e.Name()) {
			removed++
		}
	}
	return removed, nil
}

func isEntryName(name string) bool {
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json"+zstdSuffix)
}
