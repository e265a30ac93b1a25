package recovery

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{5}-[0-9A-HJKMNP-TV-Z]{5}$`)

func TestCodes_Generate(t *testing.T) {
	codes, err := NewCodes().Generate()
	require.NoError(t, err)
	require.Len(t, codes, SetSize)

	seen := make(map[string]struct{}, SetSize)
	for _, code := range codes {
		assert.Regexp(t, codePattern, code)

		_, dup := seen[code]
		assert.False(t, dup, "duplicate code %q", code)
		seen[code] = struct{}{}
	}
}

func TestCodes_Generate_SetsDiffer(t *testing.T) {
	gen := NewCodes()

	first, err := gen.Generate()
	require.NoError(t, err)
	second, err := gen.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "A2C4EF6H8K", Normalize("a2c4e-f6h8k"))
	assert.Equal(t, "A2C4EF6H8K", Normalize("  A2C4E F6H8K  "))
	assert.Equal(t, "A2C4EF6H8K", Normalize("A2C4EF6H8K"))
}
