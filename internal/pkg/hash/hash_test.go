package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2idHashVerify(t *testing.T) {
	h := NewArgon2id("pepper")

	hashed, err := h.Hash("CKWPT-9H3MV")
	require.NoError(t, err)
	assert.Contains(t, string(hashed), "$argon2id$")

	assert.True(t, h.Verify(string(hashed), "CKWPT-9H3MV"))
	assert.False(t, h.Verify(string(hashed), "CKWPT-9H3MX"))
	assert.False(t, h.Verify(string(hashed), ""))
	assert.False(t, h.Verify("", "CKWPT-9H3MV"))
}

func TestArgon2idSaltsDiffer(t *testing.T) {
	h := NewArgon2id("pepper")

	first, err := h.Hash("same input")
	require.NoError(t, err)
	second, err := h.Hash("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify(string(first), "same input"))
	assert.True(t, h.Verify(string(second), "same input"))
}

func TestArgon2idPepperMatters(t *testing.T) {
	hashed, err := NewArgon2id("one").Hash("code")
	require.NoError(t, err)

	assert.False(t, NewArgon2id("two").Verify(string(hashed), "code"))
}

func TestHMACSHA256Deterministic(t *testing.T) {
	h := NewHMACSHA256("secret")

	first, err := h.Hash("483920")
	require.NoError(t, err)
	second, err := h.Hash("483920")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, h.Verify(string(first), "483920"))
	assert.False(t, h.Verify(string(first), "483921"))
}

func TestHMACSHA256KeyMatters(t *testing.T) {
	hashed, err := NewHMACSHA256("key-a").Hash("483920")
	require.NoError(t, err)

	assert.False(t, NewHMACSHA256("key-b").Verify(string(hashed), "483920"))
}
