package hashtree

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cellstate/duskvault/backend"
	"github.com/cellstate/duskvault/model"
)

// DefaultMaxChunkSize is the hard ceiling on a single chunk's plaintext
// size; content-defined boundaries never exceed it even mid-run.
const DefaultMaxChunkSize = 4 * 1024 * 1024

// DefaultMaxBlobSize is the size in bytes of ciphertext a writer coalesces
// into one physical blob before handing it to the backend.
const DefaultMaxBlobSize = 4 * 1024 * 1024

// DefaultFanOut is the number of child HashRefs aggregated into one
// internal node before it is itself emitted as a HashRef one height up.
const DefaultFanOut = 64

// WriterConfig controls chunk/blob sizing and tree fan-out.
type WriterConfig struct {
	MaxChunkSize int
	MaxBlobSize  int
	FanOut       int
	Packing      model.Packing
}

// DefaultWriterConfig returns the repository's default sizing.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		MaxChunkSize: DefaultMaxChunkSize,
		MaxBlobSize:  DefaultMaxBlobSize,
		FanOut:       DefaultFanOut,
		Packing:      model.PackingRaw,
	}
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.MaxBlobSize <= 0 {
		c.MaxBlobSize = DefaultMaxBlobSize
	}
	if c.FanOut <= 0 {
		c.FanOut = DefaultFanOut
	}
	if c.Packing == 0 {
		c.Packing = model.PackingRaw
	}
	return c
}

// Writer builds hash trees over a backend: it chunks byte streams,
// encrypts and packs each chunk, coalesces ciphertext into blobs and
// aggregates the resulting leaf HashRefs into an internal-node tree
// bounded by FanOut, exactly mirroring the read path a LeafIterator or
// FileReader later walks back down.
type Writer struct {
	cfg       WriterConfig
	be        backend.Backend
	masterKey []byte
	log       *logrus.Entry

	mu   sync.Mutex
	blob *blobAccumulator
}

// NewWriter builds a Writer storing into be, encrypting under masterKey.
func NewWriter(be backend.Backend, masterKey []byte, cfg WriterConfig) *Writer {
	return &Writer{
		cfg:       cfg.withDefaults(),
		be:        be,
		masterKey: masterKey,
		log:       logrus.WithField("component", "hashtree.writer"),
	}
}

// WriteFile streams r through the chunker and returns the HashRef of the
// resulting file tree's root. An empty stream still produces a root: a
// single zero-length FileChunk leaf.
func (w *Writer) WriteFile(r io.Reader) (model.HashRef, error) {
	return w.writeStream(r, model.LeafFileChunk)
}

// WriteDirectory serializes entries (sorted by name) into a TreeList leaf
// stream and returns the HashRef of the resulting tree's root.
func (w *Writer) WriteDirectory(entries []model.File) (model.HashRef, error) {
	sorted := make([]model.File, len(entries))
	copy(sorted, entries)
	sortFiles(sorted)

	data, err := model.EncodeFiles(sorted)
	if err != nil {
		return model.HashRef{}, fmt.Errorf("hashtree: encode directory: %w", err)
	}
	return w.writeStream(bytes.NewReader(data), model.LeafTreeList)
}

// WriteSnapshotList serializes snapshots into a SnapshotList leaf stream
// and returns the HashRef of the resulting tree's root.
func (w *Writer) WriteSnapshotList(snapshots []model.Snapshot) (model.HashRef, error) {
	data, err := model.EncodeSnapshots(snapshots)
	if err != nil {
		return model.HashRef{}, fmt.Errorf("hashtree: encode snapshot list: %w", err)
	}
	return w.writeStream(bytes.NewReader(data), model.LeafSnapshotList)
}

func sortFiles(files []model.File) {
	sort.Slice(files, func(i, j int) bool {
		return bytes.Compare(files[i].Info.Name.Bytes(), files[j].Info.Name.Bytes()) < 0
	})
}

// writeStream is the shared machinery behind WriteFile/WriteDirectory/
// WriteSnapshotList: chunk, produce leaves, aggregate, finish.
func (w *Writer) writeStream(r io.Reader, leafType model.LeafType) (model.HashRef, error) {
	b := newBuild(w, leafType)
	ch := NewChunker(r, w.cfg.MaxChunkSize)
	n := 0
	for {
		data, err := ch.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.HashRef{}, fmt.Errorf("hashtree: chunk stream: %w", err)
		}
		n++
		ref, err := w.produceNode(data, 0, leafType)
		if err != nil {
			return model.HashRef{}, err
		}
		if err := b.push(0, ref); err != nil {
			return model.HashRef{}, err
		}
	}
	if n == 0 {
		ref, err := w.produceNode(nil, 0, leafType)
		if err != nil {
			return model.HashRef{}, err
		}
		if err := b.push(0, ref); err != nil {
			return model.HashRef{}, err
		}
	}
	return b.finish()
}

// produceNode hashes, packs, encrypts and stores one node's plaintext
// (leaf chunk or serialized internal node) and returns its HashRef.
func (w *Writer) produceNode(plaintext []byte, height uint64, leafType model.LeafType) (model.HashRef, error) {
	if len(plaintext) > w.cfg.MaxChunkSize {
		return model.HashRef{}, ErrChunkTooLarge
	}

	sum := sha256.Sum256(plaintext)
	hash := sum[:]

	packed, err := compress(w.cfg.Packing, plaintext)
	if err != nil {
		return model.HashRef{}, err
	}

	ciphertext, key, err := seal(w.masterKey, packed)
	if err != nil {
		return model.HashRef{}, err
	}

	chunkRef, err := w.appendToBlob(ciphertext, w.cfg.Packing, key)
	if err != nil {
		return model.HashRef{}, err
	}

	return model.HashRef{
		Hash:     hash,
		ChunkRef: chunkRef,
		Height:   height,
		LeafType: leafType,
		Extra:    model.NoExtra,
	}, nil
}

// appendToBlob coalesces ciphertext into the writer's current blob,
// flushing it to the backend first if it would overflow MaxBlobSize.
func (w *Writer) appendToBlob(ciphertext []byte, packing model.Packing, key model.Key) (model.ChunkRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.blob == nil {
		blob, err := newBlobAccumulator()
		if err != nil {
			return model.ChunkRef{}, err
		}
		w.blob = blob
	}

	if len(w.blob.buf) > 0 && len(w.blob.buf)+len(ciphertext) > w.cfg.MaxBlobSize {
		if err := w.flushBlobLocked(); err != nil {
			return model.ChunkRef{}, err
		}
	}

	ref := model.ChunkRef{
		BlobName: w.blob.name,
		Offset:   uint64(len(w.blob.buf)),
		Length:   uint64(len(ciphertext)),
		Packing:  packing,
		Key:      key,
	}
	w.blob.buf = append(w.blob.buf, ciphertext...)

	if len(w.blob.buf) >= w.cfg.MaxBlobSize {
		if err := w.flushBlobLocked(); err != nil {
			return model.ChunkRef{}, err
		}
	}
	return ref, nil
}

// flushBlobLocked hands the current blob to the backend and starts a
// fresh one. Callers must hold w.mu.
func (w *Writer) flushBlobLocked() error {
	if w.blob == nil || len(w.blob.buf) == 0 {
		w.blob = nil
		return nil
	}
	name := w.blob.name
	data := w.blob.buf
	w.log.WithField("blob", fmt.Sprintf("%x", name)).WithField("bytes", len(data)).Debug("storing blob")
	if err := w.be.Store(name, data, func() {}); err != nil {
		return fmt.Errorf("hashtree: store blob: %w", err)
	}
	w.blob = nil
	return nil
}

// Close flushes any partially filled blob and waits for every outstanding
// store to complete. It must be called once writing is finished.
func (w *Writer) Close() error {
	w.mu.Lock()
	err := w.flushBlobLocked()
	w.mu.Unlock()
	if err != nil {
		return err
	}
	return w.be.Flush()
}

// build accumulates one tree's per-height child buffers while writeStream
// feeds it leaves; it is local to a single WriteFile/WriteDirectory/
// WriteSnapshotList call, while the Writer's blob accumulator is shared
// across calls so chunks from unrelated trees still coalesce into blobs.
type build struct {
	w        *Writer
	leafType model.LeafType
	levels   map[uint64][]model.HashRef
}

func newBuild(w *Writer, leafType model.LeafType) *build {
	return &build{w: w, leafType: leafType, levels: map[uint64][]model.HashRef{}}
}

func (b *build) push(height uint64, ref model.HashRef) error {
	b.levels[height] = append(b.levels[height], ref)
	if len(b.levels[height]) >= b.w.cfg.FanOut {
		return b.flushLevel(height)
	}
	return nil
}

func (b *build) flushLevel(height uint64) error {
	refs := b.levels[height]
	if len(refs) == 0 {
		return nil
	}
	b.levels[height] = nil

	data, err := model.EncodeHashRefs(refs)
	if err != nil {
		return fmt.Errorf("hashtree: encode internal node: %w", err)
	}
	parent, err := b.w.produceNode(data, height+1, b.leafType)
	if err != nil {
		return err
	}
	return b.push(height+1, parent)
}

func (b *build) highestNonempty() uint64 {
	var top uint64
	for h, refs := range b.levels {
		if len(refs) > 0 && h >= top {
			top = h
		}
	}
	return top
}

// finish flushes every level bottom-up and returns the single surviving
// root HashRef. A level that already holds exactly one ref with nothing
// pending above it is left unwrapped: that ref is the root as-is, rather
// than being buried under a pointless internal node with one child.
func (b *build) finish() (model.HashRef, error) {
	if refs, ok := b.levels[0]; ok && len(refs) == 1 && b.highestNonempty() == 0 {
		root := refs[0]
		b.levels[0] = nil
		return root, nil
	}

	for h := uint64(0); h <= b.highestNonempty(); h++ {
		refs := b.levels[h]
		if len(refs) == 0 {
			continue
		}
		if len(refs) == 1 && h == b.highestNonempty() {
			break
		}
		if err := b.flushLevel(h); err != nil {
			return model.HashRef{}, err
		}
	}

	top := b.highestNonempty()
	refs := b.levels[top]
	if len(refs) != 1 {
		return model.HashRef{}, fmt.Errorf("hashtree: expected a single root at height %d, got %d", top, len(refs))
	}
	root := refs[0]
	b.levels[top] = nil
	return root, nil
}
