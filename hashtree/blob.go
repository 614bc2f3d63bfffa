package hashtree

import (
	"crypto/rand"
	"fmt"
)

// blobNameSize is the length in bytes of a generated blob name; it is an
// opaque handle into the backend, not itself content-addressed, since the
// dedup guarantee lives at the chunk hash level, not the blob level.
const blobNameSize = 16

func newBlobName() ([]byte, error) {
	name := make([]byte, blobNameSize)
	if _, err := rand.Read(name); err != nil {
		return nil, fmt.Errorf("hashtree: failed to generate blob name: %w", err)
	}
	return name, nil
}

// blobAccumulator coalesces consecutively produced ciphertext chunks into
// one physical blob, up to the writer's configured blob size ceiling.
type blobAccumulator struct {
	name []byte
	buf  []byte
}

func newBlobAccumulator() (*blobAccumulator, error) {
	name, err := newBlobName()
	if err != nil {
		return nil, err
	}
	return &blobAccumulator{name: name}, nil
}
