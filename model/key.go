package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Key is the per-chunk key material attached to a ChunkRef. When None the
// referenced bytes are plaintext; when AeadChacha20Poly1305 they are AEAD
// ciphertext and must be opened with the per-chunk nonce/associated
// material plus the repository master key before decompression.
type Key struct {
	isSealed bool
	nonce    []byte // nonce + associated material, opaque to this package
}

// NoKey is the None variant: the referenced bytes are plaintext.
var NoKey = Key{}

// SealedKey builds the AeadChacha20Poly1305 variant carrying the given
// nonce/associated material.
func SealedKey(nonce []byte) Key {
	return Key{isSealed: true, nonce: nonce}
}

func (k Key) Sealed() bool    { return k.isSealed }
func (k Key) Nonce() []byte   { return k.nonce }

func (k Key) MarshalCBOR() ([]byte, error) {
	if !k.isSealed {
		return marshalVariant("n", nil)
	}
	return marshalVariant("c", k.nonce)
}

func (k *Key) UnmarshalCBOR(data []byte) error {
	disc, raw, err := unmarshalVariant(data)
	if err != nil {
		return err
	}
	switch disc {
	case "n":
		*k = NoKey
	case "c":
		var nonce []byte
		if err := cbor.Unmarshal(raw, &nonce); err != nil {
			return err
		}
		*k = SealedKey(nonce)
	default:
		return fmt.Errorf("%w: key %q", ErrUnknownVariant, disc)
	}
	return nil
}

// UserGroup is the Unix owner/group pair of an Owner::UserGroup variant.
type UserGroup struct {
	UserID  int64 `cbor:"u"`
	GroupID int64 `cbor:"g"`
}

// Owner is the filesystem owner attached to a FileInfo, absent when the
// source filesystem has no concept of uid/gid (e.g. most non-Unix hosts).
type Owner struct {
	present bool
	value   UserGroup
}

var NoOwner = Owner{}

func OwnerOf(uid, gid int64) Owner {
	return Owner{present: true, value: UserGroup{UserID: uid, GroupID: gid}}
}

func (o Owner) Present() bool     { return o.present }
func (o Owner) UserGroup() UserGroup { return o.value }

func (o Owner) MarshalCBOR() ([]byte, error) {
	if !o.present {
		return marshalVariant("n", nil)
	}
	return marshalVariant("u", o.value)
}

func (o *Owner) UnmarshalCBOR(data []byte) error {
	disc, raw, err := unmarshalVariant(data)
	if err != nil {
		return err
	}
	switch disc {
	case "n":
		*o = NoOwner
	case "u":
		var ug UserGroup
		if err := cbor.Unmarshal(raw, &ug); err != nil {
			return err
		}
		*o = Owner{present: true, value: ug}
	default:
		return fmt.Errorf("%w: owner %q", ErrUnknownVariant, disc)
	}
	return nil
}

// Permissions is the POSIX mode attached to a FileInfo; the low 16 bits of
// Mode are the mode bits, the rest is reserved.
type Permissions struct {
	present bool
	mode    uint32
}

var NoPermissions = Permissions{}

func ModePermissions(mode uint32) Permissions {
	return Permissions{present: true, mode: mode}
}

func (p Permissions) Present() bool { return p.present }
func (p Permissions) Mode() uint32  { return p.mode }

func (p Permissions) MarshalCBOR() ([]byte, error) {
	if !p.present {
		return marshalVariant("n", nil)
	}
	return marshalVariant("m", p.mode)
}

func (p *Permissions) UnmarshalCBOR(data []byte) error {
	disc, raw, err := unmarshalVariant(data)
	if err != nil {
		return err
	}
	switch disc {
	case "n":
		*p = NoPermissions
	case "m":
		var mode uint32
		if err := cbor.Unmarshal(raw, &mode); err != nil {
			return err
		}
		*p = ModePermissions(mode)
	default:
		return fmt.Errorf("%w: permissions %q", ErrUnknownVariant, disc)
	}
	return nil
}
