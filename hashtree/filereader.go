package hashtree

import (
	"fmt"
	"io"

	"github.com/cellstate/duskvault/model"
)

// FileReader gives random-access reads over a file's hash tree by lazily
// walking its LeafIterator forward and buffering only the chunk the most
// recent read touched. Reads must be sequential or forward-seeking; a
// read at an offset before the buffered chunk returns an error, since
// the tree itself cannot be walked backwards.
type FileReader struct {
	rest   *LeafIterator
	offset uint64
	buf    []byte
	eof    bool
}

// NewFileReader opens a reader over the file tree rooted at root.
func NewFileReader(f *Fetcher, root model.HashRef) *FileReader {
	return &FileReader{rest: NewLeafIterator(f, root)}
}

// next advances to the following leaf chunk, replacing buf and returning
// the previous buf's contents; at the end of the tree it clears buf, sets
// eof and returns nil. offset is bumped by the outgoing buf's
// length before the swap, so it always tracks buf's starting offset.
func (r *FileReader) next() ([]byte, error) {
	r.offset += uint64(len(r.buf))
	data, _, err := r.rest.Next()
	if err == io.EOF {
		r.buf = nil
		r.eof = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	old := r.buf
	r.buf = data
	return old, nil
}

// advance pulls chunks forward until buf covers offset, or the tree is
// exhausted. buf covers offset exactly when r.offset <= offset <
// r.offset+len(buf); since offset only ever grows, that reduces to
// "keep advancing while offset has reached or passed buf's end".
func (r *FileReader) advance(offset uint64) error {
	for r.offset+uint64(len(r.buf)) <= offset || len(r.buf) == 0 {
		if _, err := r.next(); err != nil {
			return err
		}
		if r.eof {
			break
		}
	}
	return nil
}

// from returns the suffix of buf starting at the given absolute offset.
// The caller must have already advanced far enough that offset falls
// within [r.offset, r.offset+len(buf)].
func (r *FileReader) from(offset uint64) ([]byte, error) {
	if offset < r.offset {
		return nil, fmt.Errorf("hashtree: read offset %d behind buffer start %d", offset, r.offset)
	}
	start := offset - r.offset
	if start > uint64(len(r.buf)) {
		return nil, fmt.Errorf("hashtree: read offset %d past buffered range", offset)
	}
	return r.buf[start:], nil
}

func (r *FileReader) take(offset uint64, size int) ([]byte, error) {
	s, err := r.from(offset)
	if err != nil {
		return nil, err
	}
	if len(s) > size {
		s = s[:size]
	}
	return s, nil
}

// Read returns exactly the bytes in [offset, offset+size), or fewer if
// the file ends first, or nil once offset is at or past end of file.
// Like the tree it walks, a FileReader reads forward only: callers doing
// true random access should open a fresh reader per seek-backward.
func (r *FileReader) Read(offset uint64, size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if err := r.advance(offset); err != nil {
		return nil, err
	}
	if r.eof && offset >= r.offset {
		return nil, nil
	}

	avail, err := r.from(offset)
	if err != nil {
		return nil, err
	}
	if r.eof && len(avail) == 0 {
		return nil, nil
	}

	if size <= len(avail) {
		chunk, err := r.take(offset, size)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(chunk))
		copy(out, chunk)
		return out, nil
	}

	head, err := r.take(offset, len(avail))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(head), size)
	copy(out, head)

	rest, err := r.Read(offset+uint64(len(head)), size-len(head))
	if err != nil {
		return nil, err
	}
	out = append(out, rest...)
	return out, nil
}
