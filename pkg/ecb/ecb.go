// Package ecb implements AES-128 electronic codebook decryption of KFN payloads.
//
// ECB decrypts every 16-byte block independently. No padding scheme is
// applied: callers truncate plaintext to the length they know.
package ecb

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

const (
	// BlockSize is the AES block size.
	BlockSize = aes.BlockSize
	// KeySize is the AES-128 key size.
	KeySize = 16
)

var (
	ErrInvalidCiphertextLength = errors.New("ciphertext length is not a multiple of the block size")
	ErrInvalidKeyLength        = errors.New("key must be 16 bytes")
)

// Decrypt decrypts ciphertext with key and returns a buffer of the same length.
func Decrypt(ciphertext, key []byte) ([]byte, error) {
	if len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCiphertextLength, len(ciphertext))
	}
	block, err := newCipher(key)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(ciphertext))
	for off := 0; off < len(ciphertext); off += BlockSize {
		block.Decrypt(plaintext[off:off+BlockSize], ciphertext[off:off+BlockSize])
	}
	return plaintext, nil
}

// Encrypt encrypts plaintext with key. The final partial block is zero filled,
// so the result is len(plaintext) rounded up to the block size.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := newCipher(key)
	if err != nil {
		return nil, err
	}

	size := (len(plaintext) + BlockSize - 1) / BlockSize * BlockSize
	out := make([]byte, size)
	copy(out, plaintext)
	for off := 0; off < size; off += BlockSize {
		block.Encrypt(out[off:off+BlockSize], out[off:off+BlockSize])
	}
	return out, nil
}

func newCipher(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return block, nil
}
