package catalog

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a GET response is reused before it is refetched.
const DefaultCacheTTL = 5 * time.Second

type cacheEntry struct {
	storedAt time.Time
	body     []byte
}

// responseCache holds raw GET bodies keyed by absolute URL. Any mutation
// clears it wholesale; fills racing a clear are dropped via the generation
// counter.
type responseCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	now        func() time.Time
	entries    map[string]cacheEntry
	generation uint64
	inflight   singleflight.Group
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// get returns the cached body for key if it is younger than the TTL.
func (c *responseCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl <= 0 || c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.body, true
}

// snapshot returns the current generation, to be handed back to put.
func (c *responseCache) snapshot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// put stores body unless the cache was cleared after gen was taken.
func (c *responseCache) put(key string, body []byte, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 || gen != c.generation {
		return
	}
	c.entries[key] = cacheEntry{storedAt: c.now(), body: body}
}

func (c *responseCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.generation++
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
