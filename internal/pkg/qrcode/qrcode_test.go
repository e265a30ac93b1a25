package qrcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngMagic is the fixed 8-byte PNG file signature.
var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func TestPNG(t *testing.T) {
	png, err := PNG("otpauth://totp/ToolVault:user@toolvault.dev?secret=ABC", 128)
	require.NoError(t, err)
	assert.Equal(t, pngMagic, png[:8])
}

func TestPNG_DefaultSize(t *testing.T) {
	png, err := PNG("hello", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestPNG_EmptyContent(t *testing.T) {
	_, err := PNG("   ", 128)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestDataURI(t *testing.T) {
	uri, err := DataURI("hello", 64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
