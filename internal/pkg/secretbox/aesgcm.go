package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Ciphertext layout (binary):
// [0..1]   uint16 format version (currently 1)
// [2..13]  12-byte nonce
// [14..]   gcm.Seal output (ciphertext + tag)
const formatVersion uint16 = 1

const (
	nonceSize = 12
	keySize   = 32
)

var (
	// ErrNotConfigured indicates a codec with no key provider.
	ErrNotConfigured = errors.New("secretbox: key provider not configured")
	// ErrEmptyPlaintext indicates an empty plaintext input.
	ErrEmptyPlaintext = errors.New("secretbox: plaintext is empty")
	// ErrInvalidKeyLength indicates the provided key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("secretbox: invalid key length")
	// ErrCiphertextTooShort indicates a truncated ciphertext.
	ErrCiphertextTooShort = errors.New("secretbox: ciphertext too short")
	// ErrUnsupportedVersion indicates an unknown ciphertext format version.
	ErrUnsupportedVersion = errors.New("secretbox: unsupported ciphertext version")
	// ErrOpenFailed indicates authentication or decryption failure.
	ErrOpenFailed = errors.New("secretbox: open failed")
)

// AESGCM implements Codec using AES-256-GCM with scope-derived AAD.
type AESGCM struct {
	keys KeyProvider
}

// NewAESGCM constructs an AES-GCM codec.
func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys}
}

// Seal encrypts plaintext under the key for scope, binding the ciphertext
// to the scope via AAD.
func (c *AESGCM) Seal(plaintext []byte, scope Scope) ([]byte, error) {
	if c == nil || c.keys == nil {
		return nil, ErrNotConfigured
	}
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}

	gcm, err := c.aead(scope)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("secretbox: nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, scopeAAD(scope))

	out := make([]byte, 2+nonceSize+len(sealed))
	binary.BigEndian.PutUint16(out[0:2], formatVersion)
	copy(out[2:2+nonceSize], nonce)
	copy(out[2+nonceSize:], sealed)

	return out, nil
}

// Open decrypts ciphertext, requiring the same scope it was sealed under.
func (c *AESGCM) Open(ciphertext []byte, scope Scope) ([]byte, error) {
	if c == nil || c.keys == nil {
		return nil, ErrNotConfigured
	}
	if len(ciphertext) < 2+nonceSize+1 {
		return nil, ErrCiphertextTooShort
	}

	version := binary.BigEndian.Uint16(ciphertext[0:2])
	if version != formatVersion {
		return nil, fmt.Errorf("secretbox: ciphertext version %d: %w", version, ErrUnsupportedVersion)
	}

	gcm, err := c.aead(scope)
	if err != nil {
		return nil, err
	}

	nonce := ciphertext[2 : 2+nonceSize]
	sealed := ciphertext[2+nonceSize:]

	plain, err := gcm.Open(nil, nonce, sealed, scopeAAD(scope))
	if err != nil {
		// Do not distinguish wrong scope from wrong key from tampering.
		return nil, ErrOpenFailed
	}

	return plain, nil
}

func (c *AESGCM) aead(scope Scope) (cipher.AEAD, error) {
	key, err := c.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("secretbox: key provider error: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("secretbox: key length %d (want %d for AES-256): %w", len(key), keySize, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes init failed: %w", err)
	}

	return cipher.NewGCM(block)
}

// scopeAAD hashes a canonical form of the scope. Hashing keeps the AAD a
// fixed length and removes separator ambiguity between fields.
func scopeAAD(s Scope) []byte {
	canonical := fmt.Sprintf("uid=%d\npurpose=%s\n", s.UserID, s.Purpose)
	sum := sha256.Sum256([]byte(canonical))
	return sum[:]
}
