package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Packing selects the compression scheme applied to a chunk before
// encryption. It carries no payload, so the wire form is a bare
// single-letter CBOR text string rather than a tagged map.
type Packing byte

const (
	PackingRaw    Packing = 'r'
	PackingGZip   Packing = 'g'
	PackingSnappy Packing = 's'
)

func (p Packing) String() string {
	switch p {
	case PackingRaw:
		return "raw"
	case PackingGZip:
		return "gzip"
	case PackingSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("Packing(%q)", byte(p))
	}
}

func (p Packing) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(string(p))
}

func (p *Packing) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s) != 1 {
		return fmt.Errorf("model: invalid packing tag %q", s)
	}
	switch Packing(s[0]) {
	case PackingRaw, PackingGZip, PackingSnappy:
		*p = Packing(s[0])
		return nil
	default:
		return fmt.Errorf("%w: packing %q", ErrUnknownVariant, s)
	}
}

// LeafType is the interpretation of a decrypted leaf's plaintext.
type LeafType byte

const (
	LeafFileChunk    LeafType = 'f'
	LeafTreeList     LeafType = 't'
	LeafSnapshotList LeafType = 's'
)

func (l LeafType) String() string {
	switch l {
	case LeafFileChunk:
		return "FileChunk"
	case LeafTreeList:
		return "TreeList"
	case LeafSnapshotList:
		return "SnapshotList"
	default:
		return fmt.Sprintf("LeafType(%q)", byte(l))
	}
}

func (l LeafType) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(string(l))
}

func (l *LeafType) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s) != 1 {
		return fmt.Errorf("model: invalid leaf type tag %q", s)
	}
	switch LeafType(s[0]) {
	case LeafFileChunk, LeafTreeList, LeafSnapshotList:
		*l = LeafType(s[0])
		return nil
	default:
		return fmt.Errorf("%w: leaf type %q", ErrUnknownVariant, s)
	}
}
