package jwt

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvault/toolvault/internal/pkg/clock"
	"github.com/toolvault/toolvault/internal/pkg/uid"
)

func testJWT(t *testing.T, now time.Time) *HS512 {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:    bytes.Repeat([]byte{0x5a}, 64),
		Issuer:    "toolvault",
		Audiences: []string{"toolvault-api"},
		TTL:       15 * time.Minute,
		Clock:     &clock.Fixed{At: now},
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)
	return j
}

func TestHS512_GenerateVerify(t *testing.T) {
	now := time.Now()
	j := testJWT(t, now)

	token, err := j.Generate(42, "user@toolvault.dev", true)
	require.NoError(t, err)

	claims, err := j.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user@toolvault.dev", claims.UserEmail)
	assert.True(t, claims.TwoFactor)
	assert.Equal(t, "42", claims.Subject)
}

func TestHS512_PendingSecondFactor(t *testing.T) {
	j := testJWT(t, time.Now())

	token, err := j.Generate(42, "user@toolvault.dev", false)
	require.NoError(t, err)

	claims, err := j.Verify(token)
	require.NoError(t, err)
	assert.False(t, claims.TwoFactor)
}

func TestHS512_Expired(t *testing.T) {
	issued := testJWT(t, time.Now().Add(-time.Hour))

	token, err := issued.Generate(42, "user@toolvault.dev", true)
	require.NoError(t, err)

	_, err = issued.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestHS512_WrongKey(t *testing.T) {
	a := testJWT(t, time.Now())

	b, err := NewHS512(Config{
		Secret:    bytes.Repeat([]byte{0x11}, 64),
		Issuer:    "toolvault",
		Audiences: []string{"toolvault-api"},
		TTL:       15 * time.Minute,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	token, err := a.Generate(42, "user@toolvault.dev", true)
	require.NoError(t, err)

	_, err = b.Verify(token)
	assert.Error(t, err)
}

func TestNewHS512_ShortKey(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestAuthContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetAuth(ctx))

	ctx = SetAuth(ctx, Claims{UserID: 7})
	got := GetAuth(ctx)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.UserID)
}
