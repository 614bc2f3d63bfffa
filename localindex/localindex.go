// Package localindex is a minimal stand-in for the full local index: a
// small CBOR-encoded file mapping each family name to the root HashRef
// of its SnapshotList tree. It exists to let the CLI's ls and mount
// commands resolve a repository end to end; the committer, garbage
// collector and crash-recovery bookkeeping a full local index would also
// own are out of scope and are not implemented here.
package localindex

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/cellstate/duskvault/model"
)

// record is the on-disk shape; Roots is keyed by family name the same
// way the CBOR-encoded domain types are, for the same reason: stable,
// compact, and already exercised by everything else in this module.
type record struct {
	Roots map[string]model.HashRef `cbor:"roots"`
}

// Index is the persisted family -> SnapshotList-root mapping.
type Index struct {
	path string

	mu    sync.Mutex
	Roots map[string]model.HashRef
}

// Open loads the index at path, creating an empty one if it does not
// exist yet.
func Open(path string) (*Index, error) {
	idx := &Index{path: path, Roots: make(map[string]model.HashRef)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localindex: open %s: %w", path, err)
	}
	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("localindex: decode %s: %w", path, err)
	}
	if rec.Roots != nil {
		idx.Roots = rec.Roots
	}
	return idx, nil
}

// Save writes the index back to its path.
func (idx *Index) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	data, err := cbor.Marshal(record{Roots: idx.Roots})
	if err != nil {
		return fmt.Errorf("localindex: encode: %w", err)
	}
	if err := os.WriteFile(idx.path, data, 0600); err != nil {
		return fmt.Errorf("localindex: write %s: %w", idx.path, err)
	}
	return nil
}

// FamilyRoot returns the SnapshotList root recorded for family, if any.
func (idx *Index) FamilyRoot(family string) (model.HashRef, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	ref, ok := idx.Roots[family]
	return ref, ok
}

// SetFamilyRoot records root as family's current SnapshotList root,
// superseding whatever was there before.
func (idx *Index) SetFamilyRoot(family string, root model.HashRef) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.Roots[family] = root
}

// FamilyNames lists every family the index currently tracks, including
// the reserved roster family if present.
func (idx *Index) FamilyNames() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	names := make([]string, 0, len(idx.Roots))
	for name := range idx.Roots {
		names = append(names, name)
	}
	return names
}
