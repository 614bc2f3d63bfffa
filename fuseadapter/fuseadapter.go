// Package fuseadapter exposes the repository's filesystem view over
// bazil.org/fuse, using its raw request/reply API directly rather than
// the higher-level fs package: an inode table populated eagerly at
// mount for the family/snapshot hierarchy, with each snapshot's actual
// directory tree materialized lazily on first access.
package fuseadapter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"bazil.org/fuse"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/cellstate/duskvault/hashtree"
	"github.com/cellstate/duskvault/model"
	"github.com/cellstate/duskvault/vfs"
	"github.com/cellstate/duskvault/walker"
)

// hashIndexSize bounds the content-hash -> inode reverse index. It only
// needs to be large enough to catch dedup within one ls/readdir's
// working set, not the whole repository.
const hashIndexSize = 8192

type kind int

const (
	kindParent kind = iota // static directory: root or a family
	kindParentTop
	kindFileTop
	kindSymlink
)

type file struct {
	name       string
	kind       kind
	hashRef    model.HashRef
	linkTarget []byte
	attr       fuse.Attr
	parent     uint64
	hasParent  bool
}

func defaultDirAttr() fuse.Attr {
	return fuse.Attr{Mode: os.ModeDir | 0755}
}

// Adapter is the bazil.org/fuse Filesystem-shaped server: it owns the
// inode table, the parent->children index and the table of open file
// handles, and answers kernel requests read off a *fuse.Conn.
type Adapter struct {
	catalog vfs.Catalog
	fetcher *hashtree.Fetcher
	log     *logrus.Entry

	mu         sync.Mutex
	inodes     map[uint64]*file
	children   map[uint64][]uint64
	nextInode  uint64
	handles    map[uint64]*hashtree.FileReader
	nextHandle uint64
	hashIndex  *lru.Cache
}

// New builds an Adapter and eagerly populates the root/family/snapshot
// levels of the inode table from catalog.
func New(catalog vfs.Catalog, fetcher *hashtree.Fetcher) (*Adapter, error) {
	hashIndex, err := lru.New(hashIndexSize)
	if err != nil {
		return nil, fmt.Errorf("fuseadapter: build hash index: %w", err)
	}

	a := &Adapter{
		catalog:   catalog,
		fetcher:   fetcher,
		log:       logrus.WithField("component", "fuseadapter"),
		inodes:    make(map[uint64]*file),
		children:  make(map[uint64][]uint64),
		handles:   make(map[uint64]*hashtree.FileReader),
		hashIndex: hashIndex,
	}
	if err := a.populate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Adapter) addFile(f *file) uint64 {
	a.nextInode++
	ino := a.nextInode
	f.attr.Inode = ino
	a.inodes[ino] = f
	if f.hasParent {
		a.children[f.parent] = append(a.children[f.parent], ino)
	}
	return ino
}

// populate builds inode 1 ("root"), one directory per family excluding
// the reserved roster family, and one directory per snapshot within
// each family, with ctime/mtime from the snapshot's creation timestamp.
func (a *Adapter) populate() error {
	root := a.addFile(&file{name: "root", kind: kindParent, attr: defaultDirAttr()})

	families, err := a.catalog.Families()
	if err != nil {
		return err
	}
	for _, famName := range families {
		if famName == model.RootFamilyName {
			continue
		}
		famIno := a.addFile(&file{name: famName, kind: kindParent, attr: defaultDirAttr(), parent: root, hasParent: true})

		snapshots, err := a.catalog.Snapshots(famName)
		if err != nil {
			return err
		}
		for _, s := range snapshots {
			attr := defaultDirAttr()
			created := time.Unix(s.CreatedTSUTC, 0)
			attr.Ctime = created
			attr.Mtime = created
			a.addFile(&file{
				name:      strconv.FormatUint(s.ID, 10),
				kind:      kindParentTop,
				hashRef:   s.HashRef,
				attr:      attr,
				parent:    famIno,
				hasParent: true,
			})
		}
	}
	return nil
}

// fetchDir decrypts the TreeList tree rooted at hashRef and inserts one
// inode per entry under parent, projecting FileInfo onto fuse.Attr:
// mode from Permissions when present, atime/mtime only when both
// ModifiedTS and AccessedTS are set, size from ByteLength for regular
// files.
func (a *Adapter) fetchDir(parent uint64, hashRef model.HashRef) error {
	entries, err := walker.ReadDirectory(a.fetcher, hashRef)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		// Identical content (same HashRef hash) recurring across snapshots
		// is the common case this whole module is built around; reuse the
		// inode already allocated for it instead of growing the table by
		// one entry per snapshot that merely carries forward an unchanged
		// file or subdirectory.
		if entry.Content.Kind == model.ContentData || entry.Content.Kind == model.ContentDir {
			if existing, ok := a.hashIndex.Get(string(entry.Content.HashRef.Hash)); ok {
				ino := existing.(uint64)
				a.children[parent] = append(a.children[parent], ino)
				continue
			}
		}

		f := &file{name: entry.Info.Name.Utf8(), parent: parent, hasParent: true, attr: defaultDirAttr()}

		switch entry.Content.Kind {
		case model.ContentData:
			f.kind = kindFileTop
			f.hashRef = entry.Content.HashRef
			f.attr.Mode = 0644
			if n, ok := entry.Info.ByteLength(); ok {
				f.attr.Size = uint64(n)
			}
		case model.ContentDir:
			f.kind = kindParentTop
			f.hashRef = entry.Content.HashRef
			f.attr.Mode = os.ModeDir | 0755
		case model.ContentLink:
			f.kind = kindSymlink
			f.linkTarget = entry.Content.LinkPath
			f.attr.Mode = os.ModeSymlink | 0777
		}

		if entry.Info.Permissions.Present() {
			perm := os.FileMode(entry.Info.Permissions.Mode() & 0777)
			f.attr.Mode = (f.attr.Mode &^ 0777) | perm
		}
		if entry.Info.ModifiedTS != 0 && entry.Info.AccessedTS != 0 {
			f.attr.Mtime = time.Unix(entry.Info.ModifiedTS, 0)
			f.attr.Atime = time.Unix(entry.Info.AccessedTS, 0)
		}

		ino := a.addFile(f)
		if entry.Content.Kind == model.ContentData || entry.Content.Kind == model.ContentDir {
			a.hashIndex.Add(string(entry.Content.HashRef.Hash), ino)
		}
	}
	return nil
}

// childs returns parent's children, triggering fetchDir on first access
// to a ParentTop whose children have never been materialized.
func (a *Adapter) childs(parent uint64) []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, ok := a.inodes[parent]
	if ok && f.kind == kindParentTop {
		if _, done := a.children[parent]; !done {
			if err := a.fetchDir(parent, f.hashRef); err != nil {
				a.log.WithError(err).WithField("inode", parent).Error("fetch_dir failed")
				return nil
			}
			if _, still := a.children[parent]; !still {
				// an empty directory leaves no entry in children; mark
				// it materialized so we don't refetch on every lookup.
				a.children[parent] = []uint64{}
			}
		}
	}
	return a.children[parent]
}

// Serve reads and dispatches requests from conn until the kernel closes
// the connection.
func (a *Adapter) Serve(conn *fuse.Conn) error {
	for {
		req, err := conn.ReadRequest()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		a.dispatch(req)
	}
}

func (a *Adapter) dispatch(req fuse.Request) {
	switch r := req.(type) {
	case *fuse.InitRequest:
		r.Respond(&fuse.InitResponse{})
	case *fuse.LookupRequest:
		a.lookup(r)
	case *fuse.GetattrRequest:
		a.getattr(r)
	case *fuse.ReadlinkRequest:
		a.readlink(r)
	case *fuse.OpenRequest:
		a.open(r)
	case *fuse.ReadRequest:
		if r.Dir {
			a.readdir(r)
		} else {
			a.read(r)
		}
	case *fuse.ReleaseRequest:
		a.release(r)
	default:
		req.RespondError(fuse.ENOSYS)
	}
}

func (a *Adapter) lookup(r *fuse.LookupRequest) {
	for _, childIno := range a.childs(uint64(r.Header.Node)) {
		a.mu.Lock()
		child := a.inodes[childIno]
		a.mu.Unlock()
		if child != nil && child.name == r.Name {
			r.Respond(&fuse.LookupResponse{
				Node:       fuse.NodeID(childIno),
				Attr:       child.attr,
				EntryValid: 60 * time.Second,
			})
			return
		}
	}
	r.RespondError(fuse.ENOENT)
}

func (a *Adapter) getattr(r *fuse.GetattrRequest) {
	a.mu.Lock()
	f, ok := a.inodes[uint64(r.Header.Node)]
	a.mu.Unlock()
	if !ok {
		r.RespondError(fuse.ENOENT)
		return
	}
	r.Respond(&fuse.GetattrResponse{Attr: f.attr})
}

func (a *Adapter) readlink(r *fuse.ReadlinkRequest) {
	a.mu.Lock()
	f, ok := a.inodes[uint64(r.Header.Node)]
	a.mu.Unlock()
	if !ok || f.kind != kindSymlink {
		r.RespondError(fuse.ENOENT)
		return
	}
	r.Respond(string(f.linkTarget))
}

func (a *Adapter) open(r *fuse.OpenRequest) {
	if r.Dir {
		r.Respond(&fuse.OpenResponse{})
		return
	}

	a.mu.Lock()
	f, ok := a.inodes[uint64(r.Header.Node)]
	a.mu.Unlock()
	if !ok || f.kind != kindFileTop {
		r.RespondError(fuse.ENOENT)
		return
	}

	a.mu.Lock()
	a.nextHandle++
	h := a.nextHandle
	a.handles[h] = hashtree.NewFileReader(a.fetcher, f.hashRef)
	a.mu.Unlock()

	r.Respond(&fuse.OpenResponse{Handle: fuse.HandleID(h)})
}

func (a *Adapter) read(r *fuse.ReadRequest) {
	a.mu.Lock()
	fr, ok := a.handles[uint64(r.Handle)]
	a.mu.Unlock()
	if !ok {
		r.RespondError(fuse.EIO)
		return
	}

	data, err := fr.Read(uint64(r.Offset), r.Size)
	if err != nil {
		a.log.WithError(err).WithField("handle", r.Handle).Error("read failed")
		r.RespondError(fuse.EIO)
		return
	}
	r.Respond(&fuse.ReadResponse{Data: data})
}

func (a *Adapter) release(r *fuse.ReleaseRequest) {
	if !r.Dir {
		a.mu.Lock()
		delete(a.handles, uint64(r.Handle))
		a.mu.Unlock()
	}
	r.Respond()
}

type dirent struct {
	ino  uint64
	kind fuse.DirentType
	name string
}

func (a *Adapter) readdir(r *fuse.ReadRequest) {
	a.mu.Lock()
	f, ok := a.inodes[uint64(r.Header.Node)]
	a.mu.Unlock()
	if !ok {
		r.RespondError(fuse.ENOENT)
		return
	}

	entries := []dirent{{ino: uint64(r.Header.Node), kind: fuse.DT_Dir, name: "."}}
	if f.hasParent {
		entries = append(entries, dirent{ino: f.parent, kind: fuse.DT_Dir, name: ".."})
	}

	if f.kind == kindParent || f.kind == kindParentTop {
		for _, childIno := range a.childs(uint64(r.Header.Node)) {
			a.mu.Lock()
			c := a.inodes[childIno]
			a.mu.Unlock()
			if c == nil {
				continue
			}
			var dt fuse.DirentType
			switch c.kind {
			case kindParent, kindParentTop:
				dt = fuse.DT_Dir
			case kindSymlink:
				dt = fuse.DT_Link
			case kindFileTop:
				dt = fuse.DT_File
			}
			entries = append(entries, dirent{ino: childIno, kind: dt, name: c.name})
		}
	}

	var data []byte
	for i, e := range entries {
		if i < int(r.Offset) {
			continue
		}
		data = fuse.AppendDirent(data, fuse.Dirent{Inode: e.ino, Type: e.kind, Name: e.name})
	}
	r.Respond(&fuse.ReadResponse{Data: data})
}
