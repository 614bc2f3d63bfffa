package model

// Snapshot is a committed, immutable hash-tree root for a family at a
// point in time.
type Snapshot struct {
	ID           uint64  `cbor:"id"`
	HashRef      HashRef `cbor:"r"`
	FamilyName   string  `cbor:"f"`
	Msg          string  `cbor:"m"`
	CreatedTSUTC int64   `cbor:"c"`
}

// RootFamilyName is the reserved family that stores the snapshot roster
// itself; it must never appear as a browsable family in the filesystem
// view or FUSE adapter.
const RootFamilyName = "__hat__roots__"
