package model

// unknownByteLength is the wire sentinel for "byte length not known"; the
// Go API surfaces this as an explicit bool rather than a magic constant so
// callers can't forget to check it.
const unknownByteLength int64 = -1

// FileInfo is the filesystem metadata attached to one path component.
// Timestamps and ByteLength accept the "unknown" sentinel used on the
// wire: -1 for ByteLength, and any value at all for timestamps (unknown
// timestamps are simply values the writer never set, they round-trip
// unchanged).
type FileInfo struct {
	Name          FileName    `cbor:"n"`
	CreatedTS     int64       `cbor:"c"`
	ModifiedTS    int64       `cbor:"m"`
	AccessedTS    int64       `cbor:"a"`
	ByteLengthRaw int64       `cbor:"l"`
	Owner         Owner       `cbor:"o"`
	Permissions   Permissions `cbor:"p"`
	SnapshotTSUTC int64       `cbor:"s"`
}

// ByteLength returns the recorded size and whether it is known; a -1 on
// the wire maps to (0, false).
func (fi FileInfo) ByteLength() (int64, bool) {
	if fi.ByteLengthRaw == unknownByteLength {
		return 0, false
	}
	return fi.ByteLengthRaw, true
}

// SetByteLength records a known size, or clears it back to "unknown" when
// ok is false.
func (fi *FileInfo) SetByteLength(n int64, ok bool) {
	if !ok {
		fi.ByteLengthRaw = unknownByteLength
		return
	}
	fi.ByteLengthRaw = n
}

// Entry is the role FileInfo plays as a directory listing element; the
// wire shape is identical, only the name differs by context.
type Entry = FileInfo
