package cache

import (
	"sync"
	"time"
)

// subKeyLen is how much of each vector hash participates in the
// similarity key. 16 hex characters keep keys short while leaving
// collisions negligible for cache purposes.
const subKeyLen = 16

// SimilarityCache memoizes pairwise similarity scores between feature
// vectors. Keys are order-independent: sim(A,B) and sim(B,A) share one
// entry. Expired entries are removed by a caller-triggered Sweep;
// reads still honor the expired-means-absent contract in between.
type SimilarityCache struct {
	mu    sync.Mutex
	items map[string]simEntry
	ttl   time.Duration
}

type simEntry struct {
	score     float64
	expiresAt time.Time
}

// NewSimilarityCache creates the cache. A non-positive ttl falls back
// to the 30 minute default.
func NewSimilarityCache(ttl time.Duration) *SimilarityCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SimilarityCache{
		items: make(map[string]simEntry),
		ttl:   ttl,
	}
}

// SimilarityKey derives the order-independent cache key for a pair of
// vector hashes: the two truncated sub-hashes are sorted before being
// joined, so swapping the arguments never causes a miss.
func SimilarityKey(hashA, hashB string) string {
	a, b := truncate(hashA), truncate(hashB)
	if b < a {
		a, b = b, a
	}
	return "sim:" + a + ":" + b
}

func truncate(h string) string {
	if len(h) > subKeyLen {
		return h[:subKeyLen]
	}
	return h
}

// Get returns the cached score for a pair of vector hashes.
func (c *SimilarityCache) Get(hashA, hashB string) (float64, bool) {
	key := SimilarityKey(hashA, hashB)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok || !time.Now().Before(entry.expiresAt) {
		return 0, false
	}
	return entry.score, true
}

// Put stores a score with the configured TTL.
func (c *SimilarityCache) Put(hashA, hashB string, score float64) {
	c.PutWithTTL(hashA, hashB, score, c.ttl)
}

// PutWithTTL stores a score with an explicit TTL. A non-positive TTL
// produces an already-expired entry.
func (c *SimilarityCache) PutWithTTL(hashA, hashB string, score float64, ttl time.Duration) {
	key := SimilarityKey(hashA, hashB)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = simEntry{score: score, expiresAt: time.Now().Add(ttl)}
}

// Sweep removes all expired entries and returns how many were dropped.
func (c *SimilarityCache) Sweep() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.items {
		if !now.Before(entry.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len returns the current entry count, expired entries included.
func (c *SimilarityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
