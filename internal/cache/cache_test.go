package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/tabrules/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("https://example.com/bookmarks.html")
	b := CacheKey("https://example.com/other.html")

	assert.True(t, strings.HasPrefix(a, "tabrules:v1:"))
	assert.Len(t, a, len("tabrules:v1:")+64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, CacheKey("https://example.com/bookmarks.html"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("<!DOCTYPE NETSCAPE-Bookmark-file-1>")
	require.NoError(t, c.Set("k", value, 0))
	value[0] = 'X'

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, byte('<'), got[0], "stored value is a copy")

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("https://example.com/b.html")

	require.NoError(t, c.Set(key, []byte("payload"), 0))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.NotContains(t, filepath.Base(files[0]), ":")
}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), 0))

	now = now.Add(2 * time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)

	_, err := os.Stat(c.path("k"))
	assert.True(t, os.IsNotExist(err), "expired entry is removed")
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	require.NoError(t, os.WriteFile(c.path("k"), []byte("{not json"), 0644))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache_ClearKeepsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)
	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Set("b", []byte("2"), 0))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))

	require.NoError(t, c.Clear())

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, err := os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
	assert.NoError(t, c.Delete("missing"))
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewDiskCache(dir, time.Hour).Set("k", []byte("from disk"), 0))

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "from disk", string(got))

	mem, ok := c.memory.Get("k")
	require.True(t, ok)
	assert.Equal(t, "from disk", string(mem))
}

func TestNew(t *testing.T) {
	assert.IsType(t, Noop{}, New(model.CacheConfig{Enabled: false}))
	assert.IsType(t, &MemoryCache{}, New(model.CacheConfig{Enabled: true}))
	assert.IsType(t, &LayeredCache{}, New(model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute}))

	n := Noop{}
	require.NoError(t, n.Set("k", []byte("v"), 0))
	_, ok := n.Get("k")
	assert.False(t, ok)
}
