package hashtree

import "errors"

var (
	// ErrIntegrity is returned when a fetched node's plaintext hash does
	// not match its HashRef.Hash, or when decryption/decompression of a
	// chunk fails outright.
	ErrIntegrity = errors.New("hashtree: integrity error")

	// ErrChunkTooLarge is returned when a produced chunk would exceed
	// MaxChunkSize.
	ErrChunkTooLarge = errors.New("hashtree: chunk exceeds maximum size")
)
