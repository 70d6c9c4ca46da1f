package adapter

import (
	"time"

	"mhbaig/coffeemarketworker/services/browser"
	"mhbaig/coffeemarketworker/services/cache"
)

// fakePage is one rendered state of a scripted browser session.
type fakePage struct {
	html   string
	height float64
}

// fakeSession replays scripted page states; ScrollToBottom advances to the
// next state and stays on the last one once the script runs out.
type fakeSession struct {
	pages     []fakePage
	idx       int
	navErrs   []error
	navCalls  int
	scrollErr error
	closed    bool
	scrolls   int
}

func (s *fakeSession) Navigate(url string) error {
	s.navCalls++
	if s.navCalls <= len(s.navErrs) {
		return s.navErrs[s.navCalls-1]
	}
	return nil
}

func (s *fakeSession) HTML() (string, error) {
	return s.pages[s.idx].html, nil
}

func (s *fakeSession) Height() (float64, error) {
	return s.pages[s.idx].height, nil
}

func (s *fakeSession) ScrollToBottom() error {
	if s.scrollErr != nil {
		return s.scrollErr
	}
	s.scrolls++
	if s.idx < len(s.pages)-1 {
		s.idx++
	}
	return nil
}

func (s *fakeSession) WaitStable(interval time.Duration) error { return nil }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeFactory struct {
	sess    *fakeSession
	err     error
	created int
}

func (f *fakeFactory) NewSession() (browser.Session, error) {
	f.created++
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

// mockKVCache is an in-memory CacheService with an injectable clock so TTL
// expiry can be simulated without sleeping.
type mockKVCache struct {
	entries map[string]mockEntry
	now     func() time.Time
}

type mockEntry struct {
	value    []byte
	cachedAt time.Time
	ttl      time.Duration
}

func newMockKVCache() *mockKVCache {
	return &mockKVCache{
		entries: make(map[string]mockEntry),
		now:     time.Now,
	}
}

func (m *mockKVCache) Get(key string) ([]byte, error) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	if m.now().After(entry.cachedAt.Add(entry.ttl)) {
		delete(m.entries, key)
		return nil, cache.ErrCacheMiss
	}
	return entry.value, nil
}

func (m *mockKVCache) Set(key string, value []byte, ttl time.Duration) error {
	m.entries[key] = mockEntry{value: value, cachedAt: m.now(), ttl: ttl}
	return nil
}

func (m *mockKVCache) Delete(key string) error {
	delete(m.entries, key)
	return nil
}
