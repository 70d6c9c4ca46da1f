package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempCachePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cache.json")
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(tempCachePath(t))

	require.NoError(t, store.Set("vendors:pandamart:karachi", []byte("sx92"), time.Hour))

	value, err := store.Get("vendors:pandamart:karachi")
	require.NoError(t, err)
	assert.Equal(t, []byte("sx92"), value)
}

func TestFileStoreMissingKey(t *testing.T) {
	store := NewFileStore(tempCachePath(t))

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFileStoreExpiryIsAMiss(t *testing.T) {
	store := NewFileStore(tempCachePath(t))

	base := time.Now()
	store.now = func() time.Time { return base }
	require.NoError(t, store.Set("key", []byte("v"), time.Hour))

	// Still fresh just before the deadline
	store.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, err := store.Get("key")
	assert.NoError(t, err)

	// Two simulated hours later the entry reads exactly like a missing one
	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = store.Get("key")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Eviction is permanent, not a transient read failure
	store.now = func() time.Time { return base }
	_, err = store.Get("key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := tempCachePath(t)

	first := NewFileStore(path)
	require.NoError(t, first.Set("key", []byte("persisted"), time.Hour))

	second := NewFileStore(path)
	value, err := second.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), value)
}

func TestFileStoreCorruptFileColdStarts(t *testing.T) {
	path := tempCachePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewFileStore(path)

	_, err := store.Get("anything")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// The store is usable after the cold start
	require.NoError(t, store.Set("key", []byte("v"), time.Hour))
	value, err := store.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestFileStoreDelete(t *testing.T) {
	store := NewFileStore(tempCachePath(t))

	require.NoError(t, store.Set("key", []byte("v"), time.Hour))
	require.NoError(t, store.Delete("key"))

	_, err := store.Get("key")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Deleting an absent key is not an error
	assert.NoError(t, store.Delete("key"))
}
