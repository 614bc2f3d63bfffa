// Package vfs provides the read-only filesystem view over a repository:
// interpreting a path's components as root, family, snapshot and
// directory/file levels, and resolving them down to directory listings
// or a single file's (FileInfo, Content) pair.
package vfs

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cellstate/duskvault/hashtree"
	"github.com/cellstate/duskvault/model"
	"github.com/cellstate/duskvault/walker"
)

// ErrInvalidPath is returned by Open for a file that is not a regular
// file. Ls does not use it: a path whose components cannot be resolved
// is reported as found == false with a nil error.
var ErrInvalidPath = errors.New("vfs: invalid path")

// Catalog is the repository's family/snapshot roster, the external
// collaborator this package resolves root- and family-level path
// components against. It is satisfied by whatever maintains the
// `__hat__roots__` family and per-family snapshot lists.
type Catalog interface {
	// Families lists every browsable family name, excluding the reserved
	// roster family.
	Families() ([]string, error)

	// Snapshots lists the committed snapshots of one family, in
	// unspecified order. A nil, nil return means the family itself does
	// not exist; an empty non-nil slice means it exists but has no
	// snapshots yet.
	Snapshots(family string) ([]model.Snapshot, error)
}

// Kind discriminates the shape of an Ls result.
type Kind int

const (
	// KindRoot is "/": the set of browsable families.
	KindRoot Kind = iota
	// KindSnapshots is "/family": that family's committed snapshots.
	KindSnapshots
	// KindDir is "/family/id[/sub...]": a directory listing.
	KindDir
	// KindFile is "/family/id/.../name" where name is a regular file or
	// symlink, resolved down to its own entry.
	KindFile
)

// Result is the resolved value of Ls for one path.
type Result struct {
	Kind      Kind
	Families  []string
	Snapshots []model.Snapshot
	Entries   []model.File
	File      model.File
}

// FS resolves paths against a Catalog and fetches directory/file content
// from a hash tree through fetcher.
type FS struct {
	catalog Catalog
	fetcher *hashtree.Fetcher
}

// New builds an FS backed by catalog for the roster and fetcher for tree
// content.
func New(catalog Catalog, fetcher *hashtree.Fetcher) *FS {
	return &FS{catalog: catalog, fetcher: fetcher}
}

// Ls resolves path into a Result. found is false when any component
// along the way does not exist; this is a normal outcome, not an error.
func (fs *FS) Ls(path Path) (result Result, found bool, err error) {
	if len(path) == 0 {
		families, err := fs.catalog.Families()
		if err != nil {
			return Result{}, false, fmt.Errorf("vfs: list families: %w", err)
		}
		return Result{Kind: KindRoot, Families: families}, true, nil
	}

	family := path[0]
	snapshots, err := fs.catalog.Snapshots(family)
	if err != nil {
		return Result{}, false, fmt.Errorf("vfs: list snapshots for %q: %w", family, err)
	}
	if snapshots == nil {
		return Result{}, false, nil
	}
	if len(path) == 1 {
		return Result{Kind: KindSnapshots, Snapshots: snapshots}, true, nil
	}

	id, err := strconv.ParseUint(path[1], 10, 64)
	if err != nil {
		return Result{}, false, nil
	}
	snap, ok := findSnapshot(snapshots, id)
	if !ok {
		return Result{}, false, nil
	}

	return fs.resolveUnderSnapshot(snap, path[2:])
}

func findSnapshot(snapshots []model.Snapshot, id uint64) (model.Snapshot, bool) {
	for _, s := range snapshots {
		if s.ID == id {
			return s, true
		}
	}
	return model.Snapshot{}, false
}

// resolveUnderSnapshot walks rest as directory components below a
// snapshot's root, returning the directory listing at the end of the
// path, or the single file entry if the last component names a file.
func (fs *FS) resolveUnderSnapshot(snap model.Snapshot, rest []string) (Result, bool, error) {
	root := snap.HashRef
	entries, err := walker.ReadDirectory(fs.fetcher, root)
	if err != nil {
		return Result{}, false, fmt.Errorf("vfs: read snapshot root: %w", err)
	}

	for i, component := range rest {
		entry, ok := lookupByName(entries, component)
		if !ok {
			return Result{}, false, nil
		}

		last := i == len(rest)-1
		if last {
			if entry.Content.Kind != model.ContentDir {
				return Result{Kind: KindFile, File: entry}, true, nil
			}
			entries, err = walker.ReadDirectory(fs.fetcher, entry.Content.HashRef)
			if err != nil {
				return Result{}, false, fmt.Errorf("vfs: read directory %q: %w", component, err)
			}
			return Result{Kind: KindDir, Entries: entries}, true, nil
		}

		if entry.Content.Kind != model.ContentDir {
			// A non-terminal path component named something other than
			// a directory: the rest of the path cannot resolve.
			return Result{}, false, nil
		}
		entries, err = walker.ReadDirectory(fs.fetcher, entry.Content.HashRef)
		if err != nil {
			return Result{}, false, fmt.Errorf("vfs: read directory %q: %w", component, err)
		}
	}

	return Result{Kind: KindDir, Entries: entries}, true, nil
}

func lookupByName(entries []model.File, name string) (model.File, bool) {
	for _, e := range entries {
		if e.Info.Name.Utf8() == name {
			return e, true
		}
	}
	return model.File{}, false
}

// Open opens a FileReader over a regular file's content.
func (fs *FS) Open(file model.File) (*hashtree.FileReader, error) {
	if file.Content.Kind != model.ContentData {
		return nil, fmt.Errorf("vfs: %w: not a regular file", ErrInvalidPath)
	}
	return hashtree.NewFileReader(fs.fetcher, file.Content.HashRef), nil
}
