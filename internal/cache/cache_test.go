package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRecordAndContains(t *testing.T) {
	c := OpenAt(filepath.Join(t.TempDir(), "repo.reviewed"))

	ok, err := c.Contains("abc123")
	require.NoError(t, err)
	assert.False(t, ok, "empty cache contains nothing")

	require.NoError(t, c.Record("abc123"))
	require.NoError(t, c.Record("def456"))

	ok, err = c.Contains("abc123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Contains("def456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Contains("unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.reviewed")
	c := OpenAt(path)

	require.NoError(t, c.Record("one"))
	require.NoError(t, c.Record("two"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestCacheIgnoresEmptyRevision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.reviewed")
	c := OpenAt(path)
	require.NoError(t, c.Record(""))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
