package hashtree

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/cellstate/duskvault/backend"
)

func testMasterKey() []byte {
	return bytes.Repeat([]byte{0x42}, MasterKeySize)
}

func readAll(t *testing.T, fr *FileReader, total int) []byte {
	t.Helper()
	out := make([]byte, 0, total)
	const step = 4096
	off := uint64(0)
	for {
		chunk, err := fr.Read(off, step)
		if err != nil {
			t.Fatalf("Read(%d, %d): %v", off, step, err)
		}
		if len(chunk) == 0 {
			break
		}
		out = append(out, chunk...)
		off += uint64(len(chunk))
	}
	return out
}

func TestWriterEmptyFile(t *testing.T) {
	be := backend.NewMemory(0)
	w := NewWriter(be, testMasterKey(), DefaultWriterConfig())

	root, err := w.WriteFile(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !root.IsLeaf() {
		t.Fatalf("expected empty file root to be a leaf, got height %d", root.Height)
	}

	f := NewFetcher(be, testMasterKey())
	fr := NewFileReader(f, root)
	got, err := fr.Read(0, 16)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected zero bytes from empty file, got %d", len(got))
	}
}

func TestWriterSingleSmallFile(t *testing.T) {
	be := backend.NewMemory(0)
	w := NewWriter(be, testMasterKey(), DefaultWriterConfig())

	want := []byte("the quick brown fox jumps over the lazy dog")
	root, err := w.WriteFile(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !root.IsLeaf() {
		t.Fatalf("expected single-chunk file root to be a leaf, got height %d", root.Height)
	}

	f := NewFetcher(be, testMasterKey())
	fr := NewFileReader(f, root)
	got := readAll(t, fr, len(want))
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip mismatch: got %q want %q", got, want)
	}
}

func TestWriterMultiChunkRoundTrip(t *testing.T) {
	be := backend.NewMemory(0)
	cfg := WriterConfig{MaxChunkSize: 4096, MaxBlobSize: 64 * 1024, FanOut: 4}
	w := NewWriter(be, testMasterKey(), cfg)

	src := rand.New(rand.NewSource(1))
	want := make([]byte, 200*1024)
	if _, err := src.Read(want); err != nil {
		t.Fatalf("generate fixture: %v", err)
	}

	root, err := w.WriteFile(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if root.IsLeaf() {
		t.Fatalf("expected a multi-chunk file to build internal nodes, got a bare leaf")
	}

	f := NewFetcher(be, testMasterKey())

	it := NewLeafIterator(f, root)
	var reassembled []byte
	for {
		data, ref, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("LeafIterator.Next: %v", err)
		}
		if !ref.IsLeaf() {
			t.Fatalf("LeafIterator yielded a non-leaf ref at height %d", ref.Height)
		}
		reassembled = append(reassembled, data...)
	}
	if !bytes.Equal(reassembled, want) {
		t.Fatalf("leaf iterator reassembly mismatch: got %d bytes, want %d", len(reassembled), len(want))
	}

	fr := NewFileReader(f, root)
	got := readAll(t, fr, len(want))
	if !bytes.Equal(got, want) {
		t.Fatalf("FileReader round trip mismatch: got %d bytes, want %d", len(got), len(want))
	}
}

func TestFileReaderArbitrarySlices(t *testing.T) {
	be := backend.NewMemory(0)
	cfg := WriterConfig{MaxChunkSize: 2048, MaxBlobSize: 32 * 1024, FanOut: 8}
	w := NewWriter(be, testMasterKey(), cfg)

	src := rand.New(rand.NewSource(7))
	want := make([]byte, 50*1024)
	if _, err := src.Read(want); err != nil {
		t.Fatalf("generate fixture: %v", err)
	}

	root, err := w.WriteFile(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f := NewFetcher(be, testMasterKey())

	cases := []struct {
		offset int
		size   int
	}{
		{0, 10},
		{2040, 16}, // straddles a likely chunk boundary near MaxChunkSize
		{100, 5000},
		{len(want) - 3, 10}, // runs past end of file
		{len(want), 10},     // starts exactly at end of file
	}
	for _, c := range cases {
		fr := NewFileReader(f, root)
		got, err := fr.Read(uint64(c.offset), c.size)
		if err != nil {
			t.Fatalf("Read(%d, %d): %v", c.offset, c.size, err)
		}
		end := c.offset + c.size
		if end > len(want) {
			end = len(want)
		}
		var want2 []byte
		if c.offset < len(want) {
			want2 = want[c.offset:end]
		}
		if !bytes.Equal(got, want2) {
			t.Fatalf("Read(%d, %d): got %d bytes, want %d", c.offset, c.size, len(got), len(want2))
		}
	}
}

func TestWriterChunksCoalesceIntoBlobsAndDedup(t *testing.T) {
	be := backend.NewMemory(0)
	w := NewWriter(be, testMasterKey(), DefaultWriterConfig())

	same := bytes.Repeat([]byte("identical-content-"), 100)
	rootA, err := w.WriteFile(bytes.NewReader(same))
	if err != nil {
		t.Fatalf("WriteFile A: %v", err)
	}
	rootB, err := w.WriteFile(bytes.NewReader(same))
	if err != nil {
		t.Fatalf("WriteFile B: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !rootA.Equal(rootB) {
		t.Fatalf("identical plaintext should produce identical root hashes")
	}
	if !bytes.Equal(rootA.ChunkRef.BlobName, rootB.ChunkRef.BlobName) {
		t.Fatalf("expected both small files' chunks to be coalesced into one blob")
	}
}
