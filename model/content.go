package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ContentKind discriminates the variants of Content.
type ContentKind byte

const (
	ContentData ContentKind = 'f'
	ContentDir  ContentKind = 'd'
	ContentLink ContentKind = 'l'
)

// Content is the tagged body of a directory entry: a regular file's tree
// root, a subdirectory's tree root, or a symlink's inline target.
type Content struct {
	Kind     ContentKind
	HashRef  HashRef
	LinkPath []byte
}

func DataContent(ref HashRef) Content { return Content{Kind: ContentData, HashRef: ref} }
func DirContent(ref HashRef) Content  { return Content{Kind: ContentDir, HashRef: ref} }
func LinkContent(target []byte) Content {
	return Content{Kind: ContentLink, LinkPath: target}
}

func (c Content) MarshalCBOR() ([]byte, error) {
	switch c.Kind {
	case ContentData:
		return marshalVariant("f", c.HashRef)
	case ContentDir:
		return marshalVariant("d", c.HashRef)
	case ContentLink:
		return marshalVariant("l", c.LinkPath)
	default:
		return nil, fmt.Errorf("model: content has no kind set")
	}
}

func (c *Content) UnmarshalCBOR(data []byte) error {
	disc, raw, err := unmarshalVariant(data)
	if err != nil {
		return err
	}
	switch disc {
	case "f", "d":
		var ref HashRef
		if err := cbor.Unmarshal(raw, &ref); err != nil {
			return err
		}
		if disc == "f" {
			*c = DataContent(ref)
		} else {
			*c = DirContent(ref)
		}
	case "l":
		var path []byte
		if err := cbor.Unmarshal(raw, &path); err != nil {
			return err
		}
		*c = LinkContent(path)
	default:
		return fmt.Errorf("%w: content %q", ErrUnknownVariant, disc)
	}
	return nil
}
