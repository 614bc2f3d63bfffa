package backend

import (
	"bytes"
	"sync"
	"testing"
)

func TestMemoryBackendIdempotence(t *testing.T) {
	m := NewMemory(2)

	var wg sync.WaitGroup
	wg.Add(1)
	if err := m.Store([]byte("name"), []byte("X"), func() { wg.Done() }); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	wg.Wait()

	data, found, err := m.Retrieve([]byte("name"))
	if err != nil || !found || !bytes.Equal(data, []byte("X")) {
		t.Fatalf("expected to retrieve stored blob, got %v %v %v", data, found, err)
	}

	// retrieve is idempotent
	data2, found2, err := m.Retrieve([]byte("name"))
	if err != nil || !found2 || !bytes.Equal(data2, []byte("X")) {
		t.Fatalf("expected idempotent retrieve, got %v %v %v", data2, found2, err)
	}

	if err := m.Delete([]byte("name")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, found, err := m.Retrieve([]byte("name")); err != nil || found {
		t.Fatalf("expected not found after delete, got found=%v err=%v", found, err)
	}
}

func TestMemoryBackendList(t *testing.T) {
	m := NewMemory(0)

	for _, name := range []string{"a", "b", "c"} {
		if err := m.Store([]byte(name), []byte(name), nil); err != nil {
			t.Fatalf("store %q failed: %v", name, err)
		}
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	names, err := m.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 names, got %d", len(names))
	}
}

func TestMemoryBackendNotFound(t *testing.T) {
	m := NewMemory(0)
	data, found, err := m.Retrieve([]byte("missing"))
	if err != nil {
		t.Fatalf("expected no error for a miss, got %v", err)
	}
	if found || data != nil {
		t.Fatalf("expected not-found, got data=%v found=%v", data, found)
	}
}
