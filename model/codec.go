// Package model holds the persisted metadata types that make up a hash
// tree: chunk locators, typed tree pointers, directory entries and the
// snapshot roster. All of it round-trips through a compact, tagged binary
// encoding with short (mostly single-letter) field names so that forward versions can add
// fields without breaking old readers.
package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// marshalVariant encodes a tagged union as a one-entry CBOR map, the
// discriminant being the map's only key. A nil payload encodes as CBOR
// null for unit variants that carry no data of their own.
func marshalVariant(disc string, payload interface{}) ([]byte, error) {
	return cbor.Marshal(map[string]interface{}{disc: payload})
}

// unmarshalVariant decodes a one-entry tagged-union map and returns the
// discriminant plus the still-encoded payload for the caller to decode.
func unmarshalVariant(data []byte) (disc string, raw cbor.RawMessage, err error) {
	var m map[string]cbor.RawMessage
	if err = cbor.Unmarshal(data, &m); err != nil {
		return "", nil, err
	}
	if len(m) != 1 {
		return "", nil, fmt.Errorf("model: expected single-key variant, got %d keys", len(m))
	}
	for k, v := range m {
		return k, v, nil
	}
	panic("unreachable")
}
