package hash

// Hash abstracts one-way hashing of a plaintext secret.
type Hash interface {
	// Hash returns the stored representation of the plaintext.
	Hash(str string) ([]byte, error)
	// Verify reports whether the plaintext matches the stored representation.
	Verify(hashed, str string) bool
}
