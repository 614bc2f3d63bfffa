package model

import "github.com/fxamacker/cbor/v2"

// EncodeHashRefs serializes the children of an internal node: a sequence
// of HashRefs sharing one height and leaf type.
func EncodeHashRefs(refs []HashRef) ([]byte, error) {
	return cbor.Marshal(refs)
}

// DecodeHashRefs is the inverse of EncodeHashRefs.
func DecodeHashRefs(data []byte) ([]HashRef, error) {
	var refs []HashRef
	if err := cbor.Unmarshal(data, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// EncodeFiles serializes a TreeList leaf: directory entries sorted by
// name, tie-broken byte-lexicographically on the raw name form.
func EncodeFiles(files []File) ([]byte, error) {
	return cbor.Marshal(files)
}

// DecodeFiles is the inverse of EncodeFiles.
func DecodeFiles(data []byte) ([]File, error) {
	var files []File
	if err := cbor.Unmarshal(data, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// EncodeSnapshots serializes a SnapshotList leaf.
func EncodeSnapshots(snapshots []Snapshot) ([]byte, error) {
	return cbor.Marshal(snapshots)
}

// DecodeSnapshots is the inverse of EncodeSnapshots.
func DecodeSnapshots(data []byte) ([]Snapshot, error) {
	var snapshots []Snapshot
	if err := cbor.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}
