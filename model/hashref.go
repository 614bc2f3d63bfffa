package model

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ExtraInfo is the optional side-band attached to a HashRef, e.g. the
// FileInfo of a file's tree root.
type ExtraInfo struct {
	info *FileInfo
}

var NoExtra = ExtraInfo{}

func ExtraFileInfo(fi FileInfo) ExtraInfo {
	return ExtraInfo{info: &fi}
}

func (e ExtraInfo) FileInfo() (FileInfo, bool) {
	if e.info == nil {
		return FileInfo{}, false
	}
	return *e.info, true
}

func (e ExtraInfo) MarshalCBOR() ([]byte, error) {
	if e.info == nil {
		return marshalVariant("n", nil)
	}
	return marshalVariant("f", *e.info)
}

func (e *ExtraInfo) UnmarshalCBOR(data []byte) error {
	disc, raw, err := unmarshalVariant(data)
	if err != nil {
		return err
	}
	switch disc {
	case "n":
		*e = NoExtra
	case "f":
		var fi FileInfo
		if err := cbor.Unmarshal(raw, &fi); err != nil {
			return err
		}
		*e = ExtraFileInfo(fi)
	default:
		return fmt.Errorf("%w: extra info %q", ErrUnknownVariant, disc)
	}
	return nil
}

// HashRef is a typed, height-tagged pointer into a hash tree: the
// cryptographic hash of the plaintext it addresses, the physical chunk
// locator, its height in the tree (0 at leaves) and the leaf type shared
// by every node on the path from this ref to the leaves below it.
type HashRef struct {
	Hash     []byte    `cbor:"ha"`
	ChunkRef ChunkRef  `cbor:"r"`
	Height   uint64    `cbor:"h"`
	LeafType LeafType  `cbor:"l"`
	Extra    ExtraInfo `cbor:"e"`
}

// IsLeaf reports whether this ref addresses a leaf node.
func (h HashRef) IsLeaf() bool { return h.Height == 0 }

// Equal compares two refs by their content hash, which is what identity
// means for a node in a content-addressed tree.
func (h HashRef) Equal(o HashRef) bool {
	return bytes.Equal(h.Hash, o.Hash)
}

// WithExtra returns a copy of h carrying the given side-band info, e.g.
// attaching a file's FileInfo to its tree root before it is embedded in
// the parent directory's entry list.
func (h HashRef) WithExtra(e ExtraInfo) HashRef {
	h.Extra = e
	return h
}
