package hashtree

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/cellstate/duskvault/model"
)

// MasterKeySize is the size in bytes of the repository master key; it is
// the AEAD key for every chunk, and each chunk is sealed under a fresh
// random nonce, so no two chunks reuse a (key, nonce) pair even when their
// plaintext is identical.
const MasterKeySize = chacha20poly1305.KeySize

// seal encrypts plaintext under the repository master key plus a fresh
// per-chunk nonce, returning the ciphertext and the model.Key describing
// how to reverse it.
func seal(masterKey []byte, plaintext []byte) (ciphertext []byte, key model.Key, err error) {
	aead, err := chacha20poly1305.New(masterKey)
	if err != nil {
		return nil, model.Key{}, fmt.Errorf("hashtree: failed to init AEAD: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, model.Key{}, fmt.Errorf("hashtree: failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return sealed, model.SealedKey(nonce), nil
}

// open reverses seal: it decrypts ciphertext using the repository master
// key plus the nonce carried in key.
func open(masterKey []byte, key model.Key, ciphertext []byte) ([]byte, error) {
	if !key.Sealed() {
		return ciphertext, nil
	}

	aead, err := chacha20poly1305.New(masterKey)
	if err != nil {
		return nil, fmt.Errorf("hashtree: failed to init AEAD: %w", err)
	}

	plain, err := aead.Open(nil, key.Nonce(), ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: AEAD open failed: %v", ErrIntegrity, err)
	}
	return plain, nil
}
