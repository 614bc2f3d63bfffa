package model

// File is one serialized element of a TreeList leaf: a directory entry's
// metadata paired with its content body. ID is a local sequence number
// used only by higher layers that need a stable handle within one
// listing; it is not part of the content hash.
type File struct {
	ID      uint64  `cbor:"id"`
	Info    Entry   `cbor:"i"`
	Content Content `cbor:"c"`
}
