// Package recovery generates one-time recovery codes for account access
// when a second factor is unavailable.
package recovery

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Generator defines an interface for producing recovery code sets.
type Generator interface {
	// Generate returns a set of unique recovery codes or an error if the
	// random source fails.
	Generate() ([]string, error)
}

// alphabet is the character set used for recovery codes.
//
// It is the 32-character Crockford base32 set, which drops the visually
// ambiguous I, L, O, and U so codes survive being read aloud or copied
// from paper.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	// SetSize is the number of codes issued per set.
	SetSize = 8
	codeLen = 10
)

// Codes generates cryptographically secure recovery codes.
//
// Codes are formatted as:
//
//	XXXXX-XXXXX
//
// with each X drawn uniformly at random from the alphabet.
type Codes struct{}

// NewCodes returns a new recovery code generator.
func NewCodes() *Codes {
	return &Codes{}
}

// Generate produces exactly SetSize unique codes using crypto/rand.
func (c *Codes) Generate() ([]string, error) {
	out := make([]string, 0, SetSize)
	seen := make(map[string]struct{}, SetSize)

	for len(out) < SetSize {
		code, err := c.generateCode()
		if err != nil {
			return nil, err
		}

		// extremely unlikely, but prevents accidental duplicates
		if _, ok := seen[code]; ok {
			continue
		}

		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

func (c *Codes) generateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(codeLen + 1)

	for i := 0; i < codeLen; i++ {
		if i == codeLen/2 {
			sb.WriteByte('-')
		}

		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}

	return sb.String(), nil
}

// Normalize canonicalizes user input before verification: uppercase, with
// spaces and hyphens stripped.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", "")
	return strings.ReplaceAll(code, " ", "")
}
