package analysis

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutAndGet(t *testing.T) {
	cache := NewCache(t.TempDir(), 24)

	report := &Report{
		Ticker:     "AAA",
		AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
		Price:      12.5,
	}
	require.NoError(t, cache.Put(report))

	got, ok := cache.Get("AAA")
	require.True(t, ok)
	assert.Equal(t, 12.5, got.Price)
}

func TestCache_MissOnUnknownTicker(t *testing.T) {
	cache := NewCache(t.TempDir(), 24)

	_, ok := cache.Get("NOPE")
	assert.False(t, ok)
}

func TestCache_StaleReportExpires(t *testing.T) {
	cache := NewCache(t.TempDir(), 24)

	require.NoError(t, cache.Put(&Report{
		Ticker:     "AAA",
		AnalyzedAt: time.Now().Add(-25 * time.Hour).UTC().Format(time.RFC3339),
	}))

	_, ok := cache.Get("AAA")
	assert.False(t, ok)
}

func TestCache_DottedTickerFilename(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, 24)

	require.NoError(t, cache.Put(&Report{
		Ticker:     "BRK.B",
		AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
	}))

	// Dots become underscores so the ticker never reads as a file extension.
	_, err := os.Stat(filepath.Join(dir, "analysis", "BRK_B.json"))
	assert.NoError(t, err)

	got, ok := cache.Get("brk.b")
	require.True(t, ok)
	assert.Equal(t, "BRK.B", got.Ticker)
}

func TestCache_CorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, 24)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "analysis"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analysis", "AAA.json"), []byte("{bad"), 0644))

	_, ok := cache.Get("AAA")
	assert.False(t, ok)
}
