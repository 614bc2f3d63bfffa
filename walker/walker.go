// Package walker reconstructs directory listings and the snapshot
// roster from a hash tree, and walks a whole tree of directories the way
// filepath.Walk walks a real filesystem.
package walker

import (
	"errors"
	"fmt"
	"io"

	"github.com/cellstate/duskvault/hashtree"
	"github.com/cellstate/duskvault/model"
)

// SkipDir, returned from a WalkFunc, tells Walk not to descend into the
// directory just visited, mirroring filepath.SkipDir.
var SkipDir = errors.New("walker: skip this directory")

// concatLeaves gathers every leaf's plaintext under root, in tree order.
// A TreeList or SnapshotList leaf's chunk boundaries are an artifact of
// content-defined chunking over the serialized listing, not independent
// documents, so the full listing only decodes once every leaf has been
// concatenated back together.
func concatLeaves(f *hashtree.Fetcher, root model.HashRef) ([]byte, error) {
	it := hashtree.NewLeafIterator(f, root)
	var buf []byte
	for {
		data, _, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		buf = append(buf, data...)
	}
	return buf, nil
}

// ReadDirectory decodes a TreeList tree rooted at root into its entries.
func ReadDirectory(f *hashtree.Fetcher, root model.HashRef) ([]model.File, error) {
	data, err := concatLeaves(f, root)
	if err != nil {
		return nil, fmt.Errorf("walker: read directory: %w", err)
	}
	files, err := model.DecodeFiles(data)
	if err != nil {
		return nil, fmt.Errorf("walker: decode directory: %w", err)
	}
	return files, nil
}

// ReadSnapshotList decodes a SnapshotList tree rooted at root into the
// family's committed snapshots.
func ReadSnapshotList(f *hashtree.Fetcher, root model.HashRef) ([]model.Snapshot, error) {
	data, err := concatLeaves(f, root)
	if err != nil {
		return nil, fmt.Errorf("walker: read snapshot list: %w", err)
	}
	snapshots, err := model.DecodeSnapshots(data)
	if err != nil {
		return nil, fmt.Errorf("walker: decode snapshot list: %w", err)
	}
	return snapshots, nil
}

// WalkFunc is called once per entry encountered by Walk, with the full
// path of FileName components from the tree's root down to this entry.
// Returning SkipDir prevents Walk from descending into a directory entry;
// any other non-nil error aborts the walk.
type WalkFunc func(path []model.FileName, file model.File) error

// Walk visits every entry reachable from the directory tree rooted at
// root, recursing into subdirectories depth-first in listing order.
func Walk(f *hashtree.Fetcher, root model.HashRef, fn WalkFunc) error {
	return walk(f, nil, root, fn)
}

func walk(f *hashtree.Fetcher, prefix []model.FileName, root model.HashRef, fn WalkFunc) error {
	files, err := ReadDirectory(f, root)
	if err != nil {
		return err
	}
	for _, file := range files {
		path := make([]model.FileName, len(prefix), len(prefix)+1)
		copy(path, prefix)
		path = append(path, file.Info.Name)

		err := fn(path, file)
		if err == SkipDir {
			continue
		}
		if err != nil {
			return err
		}

		if file.Content.Kind == model.ContentDir {
			if err := walk(f, path, file.Content.HashRef, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
