package model

import (
	"fmt"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

// FileName holds a path component's name. Most filesystems hand us valid
// UTF-8, but a name is not guaranteed to be: systems whose path bytes are
// not UTF-8 round-trip through RawAndLossyUtf8 instead, keeping the exact
// original bytes alongside a lossy display string.
type FileName struct {
	raw     []byte
	lossy   string
	isUtf8  bool
}

// NewFileName builds a FileName from raw path bytes, choosing the Utf8
// representation when the bytes are valid UTF-8 and RawAndLossyUtf8
// otherwise.
func NewFileName(b []byte) FileName {
	if utf8.Valid(b) {
		return FileName{isUtf8: true, lossy: string(b)}
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return FileName{raw: cp, lossy: toLossyUtf8(b)}
}

// FileNameFromString builds a FileName directly from a known-UTF8 string.
func FileNameFromString(s string) FileName {
	return FileName{isUtf8: true, lossy: s}
}

func toLossyUtf8(b []byte) string {
	out := make([]rune, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, r)
		b = b[size:]
	}
	return string(out)
}

// Bytes returns the name's raw byte form; for the Utf8 variant this is the
// string's own bytes, so NewFileName(b).Bytes() == b always holds.
func (f FileName) Bytes() []byte {
	if f.isUtf8 {
		return []byte(f.lossy)
	}
	return f.raw
}

// Utf8 returns the best-effort display string: the exact string for the
// Utf8 variant, the lossy replacement-character rendering otherwise.
func (f FileName) Utf8() string {
	return f.lossy
}

// IsEmpty reports whether the name's underlying byte form has zero length.
func (f FileName) IsEmpty() bool {
	return len(f.Bytes()) == 0
}

// IsRaw reports whether this name required the lossy fallback.
func (f FileName) IsRaw() bool {
	return !f.isUtf8
}

// Equal compares two names by their UTF-8 display form, as the filesystem
// view does when matching path components.
func (f FileName) Equal(o FileName) bool {
	return f.Utf8() == o.Utf8()
}

func (f FileName) MarshalCBOR() ([]byte, error) {
	if f.isUtf8 {
		return marshalVariant("u", f.lossy)
	}
	return marshalVariant("r", []interface{}{f.raw, f.lossy})
}

func (f *FileName) UnmarshalCBOR(data []byte) error {
	disc, raw, err := unmarshalVariant(data)
	if err != nil {
		return err
	}
	switch disc {
	case "u":
		var s string
		if err := cbor.Unmarshal(raw, &s); err != nil {
			return err
		}
		*f = FileName{isUtf8: true, lossy: s}
	case "r":
		var pair struct {
			Raw   []byte
			Lossy string
		}
		var tuple [2]cbor.RawMessage
		if err := cbor.Unmarshal(raw, &tuple); err != nil {
			return err
		}
		if err := cbor.Unmarshal(tuple[0], &pair.Raw); err != nil {
			return err
		}
		if err := cbor.Unmarshal(tuple[1], &pair.Lossy); err != nil {
			return err
		}
		*f = FileName{raw: pair.Raw, lossy: pair.Lossy}
	default:
		return fmt.Errorf("model: unknown FileName discriminant %q", disc)
	}
	return nil
}
