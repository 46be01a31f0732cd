package cache

import (
	"sync"
	"time"

	"github.com/skillsenselab/voiceid/feature"
)

// localTier is the always-available in-process feature tier. Expiry is
// lazy: entries past their deadline are dropped when read.
type localTier struct {
	mu    sync.RWMutex
	items map[string]localEntry
}

type localEntry struct {
	vec       feature.Vector
	expiresAt time.Time
}

func newLocalTier() *localTier {
	return &localTier{items: make(map[string]localEntry)}
}

func (t *localTier) get(key string) (feature.Vector, bool) {
	t.mu.RLock()
	entry, ok := t.items[key]
	t.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !time.Now().Before(entry.expiresAt) {
		t.mu.Lock()
		// Re-check under the write lock; a concurrent put may have
		// refreshed the entry.
		if cur, ok := t.items[key]; ok && !time.Now().Before(cur.expiresAt) {
			delete(t.items, key)
		}
		t.mu.Unlock()
		return nil, false
	}
	return entry.vec, true
}

func (t *localTier) put(key string, vec feature.Vector, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[key] = localEntry{vec: vec, expiresAt: time.Now().Add(ttl)}
}

func (t *localTier) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}
