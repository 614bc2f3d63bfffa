package backend

import "sync"

// DefaultCacheSize is the default capacity of the read cache.
const DefaultCacheSize = 64

type cacheEntry struct {
	data  []byte
	found bool
}

// Cache is a fixed-capacity read cache in front of a Backend's Retrieve.
// It uses a reset-on-full policy: inserting into a full cache clears the
// whole map rather than evicting a single entry. That is adequate for the
// expected working set and keeps the cache's own mutex independent of
// whatever locking the wrapped Backend does internally for its write
// queue.
type Cache struct {
	inner Backend
	max   int

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache wraps inner with a read cache of at most max entries. A
// non-positive max falls back to DefaultCacheSize.
func NewCache(inner Backend, max int) *Cache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &Cache{
		inner:   inner,
		max:     max,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Store(name []byte, ciphertext []byte, done DoneFunc) error {
	return c.inner.Store(name, ciphertext, done)
}

func (c *Cache) Retrieve(name []byte) ([]byte, bool, error) {
	key := string(name)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return entry.data, entry.found, nil
	}
	c.mu.Unlock()

	data, found, err := c.inner.Retrieve(name)
	if err != nil {
		return nil, false, err
	}

	c.put(key, cacheEntry{data: data, found: found})
	return data, found, nil
}

func (c *Cache) put(key string, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.max {
		c.entries = make(map[string]cacheEntry)
	}
	c.entries[key] = entry
}

func (c *Cache) Delete(name []byte) error {
	c.mu.Lock()
	delete(c.entries, string(name))
	c.mu.Unlock()

	return c.inner.Delete(name)
}

func (c *Cache) List() ([][]byte, error) {
	return c.inner.List()
}

func (c *Cache) Flush() error {
	return c.inner.Flush()
}

var _ Backend = (*Cache)(nil)
