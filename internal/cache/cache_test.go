package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, dir string, compress bool) *Manager {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.DebugLevel)
	m := NewManager(Options{Directory: dir, Compress: compress}, logger)
	m.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return m
}

func int64p(v int64) *int64 { return &v }

func TestKey(t *testing.T) {
	assert.Equal(t, "metrics-all-all.json", Key("metrics", nil, nil, nil))
	assert.Equal(t, "metrics-1768435200-all.json", Key("metrics", int64p(1768435200), nil, nil))
	assert.Equal(t, "metrics-all-1768521599.json", Key("metrics", nil, int64p(1768521599), nil))
	assert.Equal(t, "metrics-1768435200-1768521599.json", Key("metrics", int64p(1768435200), int64p(1768521599), nil))

	k := Key("lifecycle", nil, nil, []string{"src/main.rs", "Cargo.toml"})
	assert.True(t, strings.HasPrefix(k, "lifecycle-"))
	assert.True(t, strings.HasSuffix(k, "-all-all.json"))
	assert.Len(t, strings.Split(k, "-")[1], hashLen)
}

func TestKeyFileListNormalized(t *testing.T) {
	a := Key("lifecycle", nil, nil, []string{"b.go", "a.go"})
	b := Key("lifecycle", nil, nil, []string{"a.go", "b.go", "a.go"})
	c := Key("lifecycle", nil, nil, []string{"a.go"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestKeyExtraParamsNeverCollide(t *testing.T) {
	a := Key("churn", nil, nil, nil, "limit=10")
	b := Key("churn", nil, nil, nil, "limit=20")
	plain := Key("churn", nil, nil, nil)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, plain)

	// a file named like a parameter does not alias the parameter
	assert.NotEqual(t, Key("x", nil, nil, []string{"limit=10"}), Key("x", nil, nil, nil, "limit=10"))
}

func TestGetPutRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "zstd"}[compress], func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), DirName)
			payload := []byte(`{"signals":[],"total_commits_analyzed":8}`)

			writer := newTestManager(t, dir, compress)
			_, ok := writer.Get("patterns-all-all.json", "head1")
			assert.False(t, ok)

			writer.Put("patterns-all-all.json", "head1", payload)

			// a fresh manager sees what another one wrote
			reader := newTestManager(t, dir, compress)
			got, ok := reader.Get("patterns-all-all.json", "head1")
			require.True(t, ok)
			assert.Equal(t, payload, got)

			_, ok = reader.Get("patterns-all-all.json", "head2")
			assert.False(t, ok, "entry computed at another head must miss")

			name := "patterns-all-all.json"
			if compress {
				name += ".zst"
			}
			_, err := os.Stat(filepath.Join(dir, name))
			assert.NoError(t, err)
		})
	}
}

func TestEntryFormat(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, false)
	m.Put("k.json", "abc", []byte(`{"a":1}`))

	data, err := os.ReadFile(filepath.Join(dir, "k.json"))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"abc"`, string(raw["head_commit"]))
	assert.JSONEq(t, `"2024-01-01T00:00:00Z"`, string(raw["computed_at"]))
	assert.JSONEq(t, `{"a":1}`, string(raw["result"]))
}

func TestReplaceOnNewHead(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, false)
	m.Put("k.json", "old", []byte(`{"v":1}`))
	m.Put("k.json", "new", []byte(`{"v":2}`))

	reader := newTestManager(t, dir, false)
	_, ok := reader.Get("k.json", "old")
	assert.False(t, ok)
	got, ok := reader.Get("k.json", "new")
	require.True(t, ok)
	assert.Equal(t, `{"v":2}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCorruptEntriesMiss(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.json"), []byte(`{"head_commit":"h"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json.zst"), []byte("not zstd"), 0644))

	m := newTestManager(t, dir, false)
	_, ok := m.Get("bad.json", "h")
	assert.False(t, ok)
	_, ok = m.Get("empty.json", "h")
	assert.False(t, ok)

	z := newTestManager(t, dir, true)
	_, ok = z.Get("bad.json", "h")
	assert.False(t, ok)
}

func TestPutToUnwritableDirectoryIsSilent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	m := newTestManager(t, filepath.Join(file, "cache"), false)
	assert.NotPanics(t, func() { m.Put("k.json", "h", []byte(`{}`)) })

	_, ok := newTestManager(t, filepath.Join(file, "cache"), false).Get("k.json", "h")
	assert.False(t, ok)
}

func TestStatsAndClear(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, false)
	m.Put("a.json", "h", []byte(`{}`))
	m.Put("b.json", "h", []byte(`{"x":1}`))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "diffstats.db"), []byte("bolt"), 0600))

	z := newTestManager(t, dir, true)
	z.Put("c.json", "h", []byte(`{}`))

	stats, err := m.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 1, stats.Compressed)
	assert.Positive(t, stats.Bytes)

	removed, err := m.Clear()
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, ok := m.Get("a.json", "h")
	assert.False(t, ok)
	_, err = os.Stat(filepath.Join(dir, "diffstats.db"))
	assert.NoError(t, err, "the diff-stat memo survives a clear")

	missing := newTestManager(t, filepath.Join(dir, "nope"), false)
	stats, err = missing.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
	removed, err = missing.Clear()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "zstd"}[compress], func(t *testing.T) {
			dir := t.TempDir()
			const (
				key     = "signals-all-all.json"
				writers = 8
				rounds  = 20
				padLen  = 64 << 10
			)
			pad := strings.Repeat("x", padLen)

			var writing sync.WaitGroup
			var done atomic.Bool
			for w := 0; w < writers; w++ {
				writing.Add(1)
				go func(w int) {
					defer writing.Done()
					m := newTestManager(t, dir, compress)
					for r := 0; r < rounds; r++ {
						m.Put(key, "head", []byte(fmt.Sprintf(`{"writer":%d,"round":%d,"pad":%q}`, w, r, pad)))
					}
				}(w)
			}

			type doc struct {
				Writer int    `json:"writer"`
				Round  int    `json:"round"`
				Pad    string `json:"pad"`
			}
			var reading sync.WaitGroup
			var hits atomic.Int64
			bad := make(chan string, 4)
			for r := 0; r < 4; r++ {
				reading.Add(1)
				go func() {
					defer reading.Done()
					m := newTestManager(t, dir, compress)
					for !done.Load() {
						payload, ok := m.Get(key, "head")
						if !ok {
							continue
						}
						hits.Add(1)
						var d doc
						if err := json.Unmarshal(payload, &d); err != nil || len(d.Pad) != padLen || d.Writer >= writers || d.Round >= rounds {
							select {
							case bad <- string(payload[:min(len(payload), 80)]):
							default:
							}
						}
					}
				}()
			}

			writing.Wait()
			done.Store(true)
			reading.Wait()
			close(bad)

			for b := range bad {
				t.Errorf("reader saw a partial entry: %s", b)
			}

			got, ok := newTestManager(t, dir, compress).Get(key, "head")
			require.True(t, ok)
			var final doc
			require.NoError(t, json.Unmarshal(got, &final))
			assert.Len(t, final.Pad, padLen)
			t.Logf("%d reader hits during the race", hits.Load())

			leftovers, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
			require.NoError(t, err)
			assert.Empty(t, leftovers)

			stats, err := newTestManager(t, dir, compress).Stats()
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Entries)
		})
	}
}
