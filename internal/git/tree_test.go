package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobSizes(t *testing.T) {
	f := newFixture(t)
	f.write("a.txt", "12345")
	f.write("dir/b.txt", "")
	f.commit("feat: files", at(0))

	sizes, err := f.open().BlobSizes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a.txt": 5, "dir/b.txt": 0}, sizes)
}

func TestLineCount(t *testing.T) {
	f := newFixture(t)
	f.write("a.txt", "one\ntwo\n")
	f.write("bin.dat", "\xff\xfe\x00")
	c1 := f.commit("feat: a", at(0))
	f.remove("a.txt")
	c2 := f.commit("chore: rm a", at(1))

	r := f.open()

	n, ok, err := r.LineCount(c1, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok, err = r.LineCount(c2, "a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.LineCount(c1, "bin.dat")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.LineCount(c1, "missing/dir/file")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("x"))
	assert.Equal(t, 1, countLines("x\n"))
	assert.Equal(t, 2, countLines("x\ny"))
	assert.Equal(t, 2, countLines("\n\n"))
}
