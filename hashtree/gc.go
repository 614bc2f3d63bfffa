package hashtree

import (
	"fmt"

	"github.com/cellstate/duskvault/model"
)

// CollectBlobNames walks every node reachable from root -- leaves and
// internal nodes alike -- and records the physical blob each one lives
// in. Unlike LeafIterator, which only ever yields leaf plaintext, a
// garbage collector needs every node on the way down: an internal node's
// own serialized child list occupies blob storage too.
func CollectBlobNames(f *Fetcher, root model.HashRef, into map[string]struct{}) error {
	stack := []model.HashRef{root}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		into[string(ref.ChunkRef.BlobName)] = struct{}{}

		if ref.IsLeaf() {
			continue
		}
		plaintext, err := f.Fetch(ref)
		if err != nil {
			return fmt.Errorf("hashtree: collect blob names: %w", err)
		}
		children, err := model.DecodeHashRefs(plaintext)
		if err != nil {
			return fmt.Errorf("%w: decode internal node: %v", ErrIntegrity, err)
		}
		stack = append(stack, children...)
	}
	return nil
}
