package hashtree

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/cellstate/duskvault/model"
)

// compress applies the packing scheme to plaintext before encryption.
func compress(packing model.Packing, plaintext []byte) ([]byte, error) {
	switch packing {
	case model.PackingRaw:
		return plaintext, nil
	case model.PackingGZip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(plaintext); err != nil {
			return nil, fmt.Errorf("hashtree: gzip compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("hashtree: gzip compress: %w", err)
		}
		return buf.Bytes(), nil
	case model.PackingSnappy:
		return snappy.Encode(nil, plaintext), nil
	default:
		return nil, fmt.Errorf("hashtree: unknown packing %v", packing)
	}
}

// decompress reverses compress.
func decompress(packing model.Packing, data []byte) ([]byte, error) {
	switch packing {
	case model.PackingRaw:
		return data, nil
	case model.PackingGZip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip decompress: %v", ErrIntegrity, err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip decompress: %v", ErrIntegrity, err)
		}
		return out, nil
	case model.PackingSnappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("%w: snappy decompress: %v", ErrIntegrity, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown packing %v", ErrIntegrity, packing)
	}
}
