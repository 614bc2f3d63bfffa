package backend

import (
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

// writeHelper writes an executable shell script named name into dir;
// withHelperPath puts dir on PATH for the rest of the test.
func writeHelper(t *testing.T, dir, name, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("spawned backend helpers are shell scripts")
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write helper %s: %v", name, err)
	}
}

func withHelperPath(t *testing.T, dir string) {
	t.Helper()
	old := os.Getenv("PATH")
	os.Setenv("PATH", dir+string(os.PathListSeparator)+old)
	t.Cleanup(func() { os.Setenv("PATH", old) })
}

func TestSpawnedBackendRetriesPutUntilSuccess(t *testing.T) {
	dir := t.TempDir()

	// fails (exit 1) on its first invocation, recorded in a marker file,
	// succeeds on every subsequent one.
	marker := filepath.Join(dir, "attempted")
	writeHelper(t, dir, cmdPut, `
cat >/dev/null
if [ ! -f "`+marker+`" ]; then
  touch "`+marker+`"
  exit 1
fi
exit 0
`)
	withHelperPath(t, dir)

	s := NewSpawned(1)

	var calls int32
	if err := s.Store([]byte{0xAB, 0xCD}, []byte("ciphertext"), func() {
		atomic.AddInt32(&calls, 1)
	}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		if err := s.Flush(); err != nil {
			t.Errorf("flush failed: %v", err)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("flush did not complete in time")
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected done callback to fire exactly once, fired %d times", got)
	}
}

func TestSpawnedBackendListSkipsUnparseableLines(t *testing.T) {
	dir := t.TempDir()
	writeHelper(t, dir, cmdList, `
echo "ab"
echo "not-hex!!"
echo "cd"
`)
	withHelperPath(t, dir)

	s := NewSpawned(1)
	names, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 valid names, got %d: %v", len(names), names)
	}
}

func TestSpawnedBackendGetNotFound(t *testing.T) {
	dir := t.TempDir()
	writeHelper(t, dir, cmdGet, `printf ""`)
	withHelperPath(t, dir)

	s := NewSpawned(1)
	data, found, err := s.Retrieve([]byte{0x01})
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if found || len(data) != 0 {
		t.Fatalf("expected not-found for empty stdout, got data=%v found=%v", data, found)
	}
}
