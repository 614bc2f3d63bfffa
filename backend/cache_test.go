package backend

import (
	"bytes"
	"testing"
)

func TestCacheConsistencyAfterDelete(t *testing.T) {
	inner := NewMemory(0)
	if err := inner.Store([]byte("k"), []byte("v"), nil); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := inner.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	c := NewCache(inner, 4)

	data, found, err := c.Retrieve([]byte("k"))
	if err != nil || !found || !bytes.Equal(data, []byte("v")) {
		t.Fatalf("expected cached hit, got %v %v %v", data, found, err)
	}

	if err := c.Delete([]byte("k")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, found, err := c.Retrieve([]byte("k")); err != nil || found {
		t.Fatalf("expected retrieve immediately after delete to miss, got found=%v err=%v", found, err)
	}
}

func TestCacheResetOnFull(t *testing.T) {
	inner := NewMemory(0)
	c := NewCache(inner, 2)

	for _, name := range []string{"a", "b", "c"} {
		if _, _, err := c.Retrieve([]byte(name)); err != nil {
			t.Fatalf("retrieve %q failed: %v", name, err)
		}
	}

	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()

	if size > 2 {
		t.Fatalf("expected cache to never exceed its capacity, got %d entries", size)
	}
}

func TestCacheMissCachesNotFound(t *testing.T) {
	inner := NewMemory(0)
	c := NewCache(inner, 4)

	_, found, err := c.Retrieve([]byte("absent"))
	if err != nil || found {
		t.Fatalf("expected a miss, got found=%v err=%v", found, err)
	}

	if err := inner.Store([]byte("absent"), []byte("now-exists"), nil); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := inner.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	// the cache still remembers the miss; this documents the cache's
	// actual consistency guarantee (fresh after delete, not after an
	// out-of-band write to the wrapped backend).
	_, found, err = c.Retrieve([]byte("absent"))
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if found {
		t.Fatalf("expected cached miss to still be served from cache")
	}
}
