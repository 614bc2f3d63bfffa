package hashtree

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/cellstate/duskvault/backend"
	"github.com/cellstate/duskvault/model"
)

// Fetcher retrieves and opens one hash-tree node: it loads the node's
// physical chunk from the backend, decrypts it, decompresses it, and
// checks the result's hash against the HashRef before handing it back,
// so a bit-rotted or tampered node is never silently returned as data.
type Fetcher struct {
	be        backend.Backend
	masterKey []byte
}

// NewFetcher builds a Fetcher reading from be, decrypting under masterKey.
func NewFetcher(be backend.Backend, masterKey []byte) *Fetcher {
	return &Fetcher{be: be, masterKey: masterKey}
}

// Fetch returns the verified plaintext addressed by ref.
func (f *Fetcher) Fetch(ref model.HashRef) ([]byte, error) {
	blob, found, err := f.be.Retrieve(ref.ChunkRef.BlobName)
	if err != nil {
		return nil, fmt.Errorf("hashtree: retrieve blob: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: blob %x missing", backend.ErrNotFound, ref.ChunkRef.BlobName)
	}

	end := ref.ChunkRef.End()
	if ref.ChunkRef.Offset > uint64(len(blob)) || end > uint64(len(blob)) {
		return nil, fmt.Errorf("%w: chunk range [%d,%d) outside blob of size %d", ErrIntegrity, ref.ChunkRef.Offset, end, len(blob))
	}
	ciphertext := blob[ref.ChunkRef.Offset:end]

	packed, err := open(f.masterKey, ref.ChunkRef.Key, ciphertext)
	if err != nil {
		return nil, err
	}

	plaintext, err := decompress(ref.ChunkRef.Packing, packed)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(plaintext)
	if !hashEqual(sum[:], ref.Hash) {
		return nil, fmt.Errorf("%w: node hash mismatch", ErrIntegrity)
	}
	return plaintext, nil
}

func hashEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cursor walks one level of a tree: a sibling list plus the index of the
// next child to visit.
type cursor struct {
	refs []model.HashRef
	idx  int
}

// LeafIterator performs an in-order, depth-first walk over a hash tree,
// yielding every leaf's verified plaintext in stream order. It holds one
// cursor per depth currently being descended, rather than recursing, so
// tree depth is bounded only by available memory, not goroutine stack.
type LeafIterator struct {
	f     *Fetcher
	stack []cursor
}

// NewLeafIterator walks the tree rooted at root.
func NewLeafIterator(f *Fetcher, root model.HashRef) *LeafIterator {
	return &LeafIterator{f: f, stack: []cursor{{refs: []model.HashRef{root}}}}
}

// Next returns the next leaf's plaintext and its HashRef, or io.EOF once
// every leaf has been visited.
func (it *LeafIterator) Next() ([]byte, model.HashRef, error) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.idx >= len(top.refs) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		ref := top.refs[top.idx]
		top.idx++

		plaintext, err := it.f.Fetch(ref)
		if err != nil {
			return nil, model.HashRef{}, err
		}

		if ref.IsLeaf() {
			return plaintext, ref, nil
		}

		children, err := model.DecodeHashRefs(plaintext)
		if err != nil {
			return nil, model.HashRef{}, fmt.Errorf("%w: decode internal node: %v", ErrIntegrity, err)
		}
		it.stack = append(it.stack, cursor{refs: children})
	}
	return nil, model.HashRef{}, io.EOF
}
