package vfs

import (
	"bytes"
	"testing"

	"github.com/cellstate/duskvault/backend"
	"github.com/cellstate/duskvault/hashtree"
	"github.com/cellstate/duskvault/model"
)

type fakeCatalog struct {
	families map[string][]model.Snapshot
}

func (c *fakeCatalog) Families() ([]string, error) {
	names := make([]string, 0, len(c.families))
	for name := range c.families {
		names = append(names, name)
	}
	return names, nil
}

func (c *fakeCatalog) Snapshots(family string) ([]model.Snapshot, error) {
	snaps, ok := c.families[family]
	if !ok {
		return nil, nil
	}
	return snaps, nil
}

func testMasterKey() []byte {
	return bytes.Repeat([]byte{0x77}, hashtree.MasterKeySize)
}

func buildFixture(t *testing.T) (*fakeCatalog, *hashtree.Fetcher) {
	t.Helper()
	be := backend.NewMemory(0)
	w := hashtree.NewWriter(be, testMasterKey(), hashtree.DefaultWriterConfig())

	fileRoot, err := w.WriteFile(bytes.NewReader([]byte("contents")))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	fileEntry := model.Entry{Name: model.FileNameFromString("notes.txt")}
	fileEntry.SetByteLength(8, true)

	subDirRoot, err := w.WriteDirectory([]model.File{
		{Info: fileEntry, Content: model.DataContent(fileRoot)},
	})
	if err != nil {
		t.Fatalf("WriteDirectory(sub): %v", err)
	}

	snapRoot, err := w.WriteDirectory([]model.File{
		{Info: model.Entry{Name: model.FileNameFromString("docs")}, Content: model.DirContent(subDirRoot)},
	})
	if err != nil {
		t.Fatalf("WriteDirectory(snapshot root): %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	catalog := &fakeCatalog{
		families: map[string][]model.Snapshot{
			"backups": {
				{ID: 1, HashRef: snapRoot, FamilyName: "backups"},
			},
		},
	}
	return catalog, hashtree.NewFetcher(be, testMasterKey())
}

func TestLsRoot(t *testing.T) {
	catalog, fetcher := buildFixture(t)
	fs := New(catalog, fetcher)

	res, found, err := fs.Ls(nil)
	if err != nil || !found {
		t.Fatalf("Ls(root): found=%v err=%v", found, err)
	}
	if res.Kind != KindRoot || len(res.Families) != 1 || res.Families[0] != "backups" {
		t.Fatalf("unexpected root result: %+v", res)
	}
}

func TestLsSnapshotsAndDirAndFile(t *testing.T) {
	catalog, fetcher := buildFixture(t)
	fs := New(catalog, fetcher)

	res, found, err := fs.Ls([]string{"backups"})
	if err != nil || !found || res.Kind != KindSnapshots || len(res.Snapshots) != 1 {
		t.Fatalf("Ls(family): found=%v err=%v res=%+v", found, err, res)
	}

	res, found, err = fs.Ls([]string{"backups", "1"})
	if err != nil || !found || res.Kind != KindDir || len(res.Entries) != 1 {
		t.Fatalf("Ls(snapshot root): found=%v err=%v res=%+v", found, err, res)
	}

	res, found, err = fs.Ls([]string{"backups", "1", "docs"})
	if err != nil || !found || res.Kind != KindDir || len(res.Entries) != 1 {
		t.Fatalf("Ls(docs): found=%v err=%v res=%+v", found, err, res)
	}

	res, found, err = fs.Ls([]string{"backups", "1", "docs", "notes.txt"})
	if err != nil || !found || res.Kind != KindFile {
		t.Fatalf("Ls(file): found=%v err=%v res=%+v", found, err, res)
	}
	if res.File.Info.Name.Utf8() != "notes.txt" {
		t.Fatalf("unexpected file entry: %+v", res.File)
	}
}

func TestLsMissingPathIsNotError(t *testing.T) {
	catalog, fetcher := buildFixture(t)
	fs := New(catalog, fetcher)

	if _, found, err := fs.Ls([]string{"nosuchfamily"}); err != nil || found {
		t.Fatalf("expected absent for unknown family, got found=%v err=%v", found, err)
	}
	if _, found, err := fs.Ls([]string{"backups", "999"}); err != nil || found {
		t.Fatalf("expected absent for unknown snapshot id, got found=%v err=%v", found, err)
	}
	if _, found, err := fs.Ls([]string{"backups", "1", "nope"}); err != nil || found {
		t.Fatalf("expected absent for unknown path component, got found=%v err=%v", found, err)
	}
}
