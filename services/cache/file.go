package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mhbaig/coffeemarketworker/logger"
	pkgerr "mhbaig/coffeemarketworker/pkg/errors"
)

// fileEntry is the persisted form of one cache entry. Whether a read hits
// is a pure function of the current time vs CachedAt + TTL.
type fileEntry struct {
	Value      []byte    `json:"value"`
	CachedAt   time.Time `json:"cached_at"`
	TTLSeconds int64     `json:"ttl_seconds"`
}

// FileStore is a JSON-file-backed CacheService whose entries survive runs.
// Expiry is lazy: expired entries are evicted when read, there is no
// background sweep. Every read-modify-write holds the mutex so the store
// stays correct if adapters ever run concurrently.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]fileEntry
	now     func() time.Time
	log     *logger.Logger
}

// NewFileStore opens (or cold-starts) a file-backed store at path. A
// missing file is an empty cache; an unreadable or corrupt file degrades to
// a cold cache with a warning rather than failing the run.
func NewFileStore(path string) *FileStore {
	s := &FileStore{
		path:    path,
		entries: make(map[string]fileEntry),
		now:     time.Now,
		log:     logger.ForCache(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(pkgerr.NewCacheCorrupt("unreadable cache file", err)).
				Str("path", path).Msg("Starting with cold cache")
		}
		return s
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		s.log.Warn().Err(pkgerr.NewCacheCorrupt("undecodable cache file", err)).
			Str("path", path).Msg("Starting with cold cache")
		s.entries = make(map[string]fileEntry)
	}
	return s
}

// Get retrieves a value; an expired entry is evicted and reported exactly
// like a missing one.
func (s *FileStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	ttl := time.Duration(entry.TTLSeconds) * time.Second
	if s.now().After(entry.CachedAt.Add(ttl)) {
		delete(s.entries, key)
		// Best effort; eviction is re-derived from timestamps on next load anyway
		_ = s.flushLocked()
		return nil, ErrCacheMiss
	}
	return entry.Value, nil
}

// Set stores a value and writes the whole store through to disk.
func (s *FileStore) Set(key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = fileEntry{
		Value:      value,
		CachedAt:   s.now(),
		TTLSeconds: int64(ttl / time.Second),
	}
	return s.flushLocked()
}

// Delete removes a value from the cache.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return s.flushLocked()
}

// flushLocked persists the entry map atomically (temp file + rename) so a
// crash mid-write leaves the previous cache intact. Caller holds the mutex.
func (s *FileStore) flushLocked() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
