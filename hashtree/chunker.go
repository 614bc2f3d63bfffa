package hashtree

import (
	"io"

	"github.com/restic/chunker"
)

// chunkerPolynomial is the irreducible polynomial the rolling hash is built
// over; it only needs to be fixed and shared by every writer so that
// identical plaintext produces identical chunk boundaries.
const chunkerPolynomial = chunker.Pol(0x3DA3358B4DC173)

// minChunkDivisor bounds the minimum chunk size as maxSize/minChunkDivisor,
// keeping content-defined boundaries from degenerating into one-byte
// chunks while still letting maxSize alone govern the hard ceiling.
const minChunkDivisor = 16

// Chunker splits a byte stream into content-defined chunks no larger than
// maxSize, so that identical runs of plaintext anywhere in the stream
// produce identical chunk boundaries and therefore identical chunk hashes.
type Chunker struct {
	c   *chunker.Chunker
	buf []byte
}

// NewChunker wraps r with a content-defined chunker bounded at maxSize.
func NewChunker(r io.Reader, maxSize int) *Chunker {
	min := maxSize / minChunkDivisor
	if min < 1 {
		min = 1
	}
	return &Chunker{
		c:   chunker.NewWithBoundaries(r, chunkerPolynomial, min, maxSize),
		buf: make([]byte, maxSize),
	}
}

// Next returns the next chunk, or io.EOF once the stream is exhausted. The
// returned slice is owned by the caller.
func (c *Chunker) Next() ([]byte, error) {
	chunk, err := c.c.Next(c.buf)
	if err != nil {
		return nil, err
	}
	out := make([]byte, chunk.Length)
	copy(out, chunk.Data)
	return out, nil
}
