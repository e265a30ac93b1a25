// Package secretbox encrypts small secrets at rest with AES-256-GCM,
// binding each ciphertext to the owning user and purpose so a blob copied
// between rows or columns refuses to decrypt.
package secretbox

import "errors"

// Purpose identifies what kind of secret a ciphertext protects.
type Purpose string

const (
	// PurposeTOTPSeed scopes encryption to authenticator seeds.
	PurposeTOTPSeed Purpose = "totp_seed"
	// PurposeRecoverySeed scopes encryption to recovery material.
	PurposeRecoverySeed Purpose = "recovery_seed"
)

// Scope binds a ciphertext to its owner and purpose. It is fed into AES-GCM
// as additional authenticated data, so decrypting with a different scope
// fails authentication.
type Scope struct {
	UserID  int64
	Purpose Purpose
}

// Codec seals and opens scoped secrets.
type Codec interface {
	// Seal returns ciphertext for plaintext bound to scope.
	Seal(plaintext []byte, scope Scope) ([]byte, error)
	// Open returns the plaintext for ciphertext, requiring the same scope
	// it was sealed under.
	Open(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider supplies raw AES-256 keys. Implementations may key by
// tenant, environment, or scope; for AES-256-GCM the key must be 32 bytes.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}

// ErrMissingStaticKey indicates a StaticKeyProvider with no key material.
var ErrMissingStaticKey = errors.New("secretbox: missing static key")

// StaticKeyProvider returns the same key for every scope. Suitable for
// single-key deployments; KMS-backed providers should replace it where key
// rotation is required.
type StaticKeyProvider struct {
	KeyBytes []byte
}

// Key returns a copy of the static key.
func (p StaticKeyProvider) Key(_ Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingStaticKey
	}
	k := make([]byte, len(p.KeyBytes))
	copy(k, p.KeyBytes)
	return k, nil
}
