package model

// ChunkRef addresses one contiguous byte range inside one blob.
type ChunkRef struct {
	BlobName []byte  `cbor:"b"`
	Offset   uint64  `cbor:"o"`
	Length   uint64  `cbor:"l"`
	Packing  Packing `cbor:"p"`
	Key      Key     `cbor:"k"`
}

// End returns the first offset past this chunk's byte range.
func (c ChunkRef) End() uint64 { return c.Offset + c.Length }
