package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore is a size-bounded, in-process Store. Least recently used
// entries are evicted when the store is full and expired entries are
// dropped lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	cache   *lru.Cache[string, *memoryEntry]
	tags    map[string]map[string]struct{}
	hits    uint64
	misses  uint64
	evicted uint64
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	tags      []string
}

// Stats is a point-in-time view of a MemoryStore.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Evicted uint64  `json:"evicted"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// NewMemoryStore creates a store holding at most size entries.
func NewMemoryStore(size int) (*MemoryStore, error) {
	m := &MemoryStore{
		tags: make(map[string]map[string]struct{}),
		now:  time.Now,
	}
	// The eviction callback runs synchronously inside Add/Remove/Purge, all of
	// which are called with m.mu held.
	c, err := lru.NewWithEvict[string, *memoryEntry](size, m.untag)
	if err != nil {
		return nil, err
	}
	m.cache = c
	return m, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.cache.Get(key)
	if !ok {
		m.misses++
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.cache.Remove(key)
		m.misses++
		return nil, false, nil
	}

	m.hits++
	return entry.value, true, nil
}

// Set stores value under key. A ttl of zero means the entry never expires.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &memoryEntry{value: value, tags: tags}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	// Replacing a key must not leave it indexed under its old tags.
	m.cache.Remove(key)
	if m.cache.Add(key, entry) {
		m.evicted++
	}
	for _, tag := range tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) InvalidateTag(_ context.Context, tag string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.tags[tag]
	removed := 0
	for key := range keys {
		if m.cache.Remove(key) {
			removed++
		}
	}
	delete(m.tags, tag)
	return removed, nil
}

// untag drops an evicted or removed key from the tag index.
func (m *MemoryStore) untag(key string, entry *memoryEntry) {
	for _, tag := range entry.tags {
		keys, ok := m.tags[tag]
		if !ok {
			continue
		}
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.tags, tag)
		}
	}
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}

func (m *MemoryStore) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.hits + m.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(m.hits) / float64(total)
	}
	return Stats{
		Hits:    m.hits,
		Misses:  m.misses,
		Evicted: m.evicted,
		Size:    m.cache.Len(),
		HitRate: hitRate,
	}
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Purge()
	return nil
}
