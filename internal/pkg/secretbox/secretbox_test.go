package secretbox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T) *AESGCM {
	t.Helper()
	return NewAESGCM(StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{0x42}, 32)})
}

func TestAESGCM_SealOpen_RoundTrip(t *testing.T) {
	codec := testCodec(t)
	scope := Scope{UserID: 7, Purpose: PurposeTOTPSeed}

	ct, err := codec.Seal([]byte("JBSWY3DPEHPK3PXP"), scope)
	require.NoError(t, err)
	assert.NotContains(t, string(ct), "JBSWY3DP")

	pt, err := codec.Open(ct, scope)
	require.NoError(t, err)
	assert.Equal(t, []byte("JBSWY3DPEHPK3PXP"), pt)
}

func TestAESGCM_Seal_NonceVaries(t *testing.T) {
	codec := testCodec(t)
	scope := Scope{UserID: 7, Purpose: PurposeTOTPSeed}

	a, err := codec.Seal([]byte("same plaintext"), scope)
	require.NoError(t, err)
	b, err := codec.Seal([]byte("same plaintext"), scope)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestAESGCM_Open_WrongScope(t *testing.T) {
	codec := testCodec(t)

	ct, err := codec.Seal([]byte("seed"), Scope{UserID: 7, Purpose: PurposeTOTPSeed})
	require.NoError(t, err)

	_, err = codec.Open(ct, Scope{UserID: 8, Purpose: PurposeTOTPSeed})
	assert.ErrorIs(t, err, ErrOpenFailed)

	_, err = codec.Open(ct, Scope{UserID: 7, Purpose: PurposeRecoverySeed})
	assert.ErrorIs(t, err, ErrOpenFailed)
}

func TestAESGCM_Open_Tampered(t *testing.T) {
	codec := testCodec(t)
	scope := Scope{UserID: 7, Purpose: PurposeTOTPSeed}

	ct, err := codec.Seal([]byte("seed"), scope)
	require.NoError(t, err)

	ct[len(ct)-1] ^= 0x01
	_, err = codec.Open(ct, scope)
	assert.ErrorIs(t, err, ErrOpenFailed)
}

func TestAESGCM_Open_Malformed(t *testing.T) {
	codec := testCodec(t)
	scope := Scope{UserID: 7, Purpose: PurposeTOTPSeed}

	_, err := codec.Open([]byte{0x00, 0x01}, scope)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	ct, err := codec.Seal([]byte("seed"), scope)
	require.NoError(t, err)
	ct[0], ct[1] = 0xFF, 0xFF
	_, err = codec.Open(ct, scope)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestAESGCM_KeyEnforcement(t *testing.T) {
	short := NewAESGCM(StaticKeyProvider{KeyBytes: []byte("too short")})
	_, err := short.Seal([]byte("seed"), Scope{UserID: 1, Purpose: PurposeTOTPSeed})
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	empty := NewAESGCM(StaticKeyProvider{})
	_, err = empty.Seal([]byte("seed"), Scope{UserID: 1, Purpose: PurposeTOTPSeed})
	assert.ErrorIs(t, err, ErrMissingStaticKey)

	var nilCodec *AESGCM
	_, err = nilCodec.Seal([]byte("seed"), Scope{UserID: 1, Purpose: PurposeTOTPSeed})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "JBSW...3PXP", Mask("JBSWY3DPEHPK3PXP"))
	assert.Equal(t, "...", Mask("short"))
	assert.Equal(t, "...", Mask(""))
	assert.Equal(t, "...", Mask("12345678"))
}
