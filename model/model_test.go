package model

import (
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func roundTrip(t *testing.T, v, out interface{}) {
	t.Helper()
	data, err := cbor.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := cbor.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	var none Key
	roundTrip(t, NoKey, &none)
	if none.Sealed() {
		t.Error("expected None key to stay unsealed")
	}

	var sealed Key
	roundTrip(t, SealedKey([]byte("nonce-material")), &sealed)
	if !sealed.Sealed() {
		t.Error("expected sealed key to round trip as sealed")
	}
	if !bytes.Equal(sealed.Nonce(), []byte("nonce-material")) {
		t.Errorf("expected nonce to round trip, got %v", sealed.Nonce())
	}
}

func TestOwnerAndPermissionsRoundTrip(t *testing.T) {
	var o Owner
	roundTrip(t, OwnerOf(1000, 1000), &o)
	if !o.Present() || o.UserGroup().UserID != 1000 {
		t.Errorf("expected owner to round trip, got %+v", o)
	}

	var p Permissions
	roundTrip(t, ModePermissions(0644), &p)
	if !p.Present() || p.Mode() != 0644 {
		t.Errorf("expected permissions to round trip, got %+v", p)
	}
}

func TestChunkRefRoundTrip(t *testing.T) {
	ref := ChunkRef{
		BlobName: []byte{1, 2, 3},
		Offset:   10,
		Length:   20,
		Packing:  PackingGZip,
		Key:      SealedKey([]byte("n")),
	}

	var out ChunkRef
	roundTrip(t, ref, &out)

	if !bytes.Equal(out.BlobName, ref.BlobName) || out.Offset != ref.Offset ||
		out.Length != ref.Length || out.Packing != ref.Packing || !out.Key.Sealed() {
		t.Errorf("expected ChunkRef to round trip, got %+v", out)
	}
	if out.End() != 30 {
		t.Errorf("expected End() == 30, got %d", out.End())
	}
}

func TestHashRefRoundTripWithExtra(t *testing.T) {
	fi := Entry{Name: FileNameFromString("a.txt")}
	fi.SetByteLength(42, true)

	ref := HashRef{
		Hash:     []byte("hash"),
		ChunkRef: ChunkRef{BlobName: []byte("blob")},
		Height:   2,
		LeafType: LeafTreeList,
		Extra:    ExtraFileInfo(fi),
	}

	var out HashRef
	roundTrip(t, ref, &out)

	if !out.Equal(ref) {
		t.Error("expected HashRef hash identity to round trip")
	}
	if out.Height != 2 || out.LeafType != LeafTreeList {
		t.Errorf("expected height/leaf type to round trip, got %+v", out)
	}

	gotFi, ok := out.Extra.FileInfo()
	if !ok {
		t.Fatal("expected extra FileInfo to be present")
	}
	n, known := gotFi.ByteLength()
	if !known || n != 42 {
		t.Errorf("expected byte length 42, got %d (known=%v)", n, known)
	}
}

func TestContentRoundTrip(t *testing.T) {
	ref := HashRef{Hash: []byte("h")}

	var data Content
	roundTrip(t, DataContent(ref), &data)
	if data.Kind != ContentData || !data.HashRef.Equal(ref) {
		t.Errorf("expected data content to round trip, got %+v", data)
	}

	var dir Content
	roundTrip(t, DirContent(ref), &dir)
	if dir.Kind != ContentDir {
		t.Errorf("expected dir content to round trip, got %+v", dir)
	}

	var link Content
	roundTrip(t, LinkContent([]byte("/etc/passwd")), &link)
	if link.Kind != ContentLink || string(link.LinkPath) != "/etc/passwd" {
		t.Errorf("expected link content to round trip, got %+v", link)
	}
}

func TestDirectoryRoundTripModuloSnapshotTimestamp(t *testing.T) {
	mkEntry := func(name string) Entry {
		fi := Entry{Name: FileNameFromString(name), ModifiedTS: 100}
		fi.SetByteLength(5, true)
		return fi
	}

	files := []File{
		{ID: 1, Info: mkEntry("a.txt"), Content: DataContent(HashRef{Hash: []byte("a")})},
		{ID: 2, Info: mkEntry("b.txt"), Content: DataContent(HashRef{Hash: []byte("b")})},
	}

	data, err := EncodeFiles(files)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := DecodeFiles(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(out) != len(files) {
		t.Fatalf("expected %d files, got %d", len(files), len(out))
	}
	for i := range files {
		// snapshot_ts_utc is assigned at write time by the caller, and is
		// deliberately left untouched by this comparison.
		if out[i].Info.Name.Utf8() != files[i].Info.Name.Utf8() {
			t.Errorf("entry %d: name mismatch, got %q", i, out[i].Info.Name.Utf8())
		}
		n1, _ := out[i].Info.ByteLength()
		n2, _ := files[i].Info.ByteLength()
		if n1 != n2 {
			t.Errorf("entry %d: byte length mismatch", i)
		}
	}
}
