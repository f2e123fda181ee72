// Package cryptox holds the symmetric primitives behind the local secret
// backend: key derivation and AES-256-GCM sealing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length.
const KeySize = 32

var (
	// ErrInvalidKey is returned when no key material is configured.
	ErrInvalidKey = errors.New("invalid encryption key: must not be empty")
	// ErrOpenFailed is returned when a sealed value cannot be authenticated.
	ErrOpenFailed = errors.New("open failed: invalid ciphertext or wrong key")
)

// DeriveMasterKey stretches a passphrase into a 32-byte key with Argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	x := argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
	return x
}

// ParseKey turns configured key material into an AES-256 key.
//
// A value that is valid standard base64 and decodes to exactly 32 bytes is
// used as-is (e.g. from `openssl rand -base64 32`). Anything else is treated
// as a passphrase and run through DeriveMasterKey with salt.
func ParseKey(material string, salt []byte) ([]byte, error) {
	if material == "" {
		return nil, ErrInvalidKey
	}
	if decoded, err := base64.StdEncoding.DecodeString(material); err == nil && len(decoded) == KeySize {
		return decoded, nil
	}
	return DeriveMasterKey([]byte(material), salt), nil
}

// Cipher seals and opens byte strings with AES-256-GCM.
// Output layout is nonce || ciphertext || tag.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) == 0 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext. additionalData is authenticated but not
// encrypted; Open must be given the same value.
func (c *Cipher) Seal(plaintext, additionalData []byte) []byte {
	nonce := common.GenerateRandByteArray(c.aead.NonceSize())
	return c.aead.Seal(nonce, nonce, plaintext, additionalData)
}

// Open reverses Seal. Any tampering, truncation, wrong key or mismatched
// additionalData yields ErrOpenFailed.
func (c *Cipher) Open(sealed, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrOpenFailed)
	}
	plaintext, err := c.aead.Open(nil, sealed[:n], sealed[n:], additionalData)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}
