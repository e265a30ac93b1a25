package otp

import (
	"net/url"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rfcSecret is the ASCII secret "12345678901234567890" from RFC 6238
// Appendix B, base32-encoded.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestTOTP_CodeAt_RFC6238Vectors(t *testing.T) {
	engine := NewTOTP("ToolVault", 30, 1, otp.DigitsEight)

	tests := []struct {
		unix int64
		want string
	}{
		{unix: 59, want: "94287082"},
		{unix: 1111111109, want: "07081804"},
		{unix: 1111111111, want: "14050471"},
		{unix: 1234567890, want: "89005924"},
		{unix: 2000000000, want: "69279037"},
	}

	for _, tt := range tests {
		got, err := engine.CodeAt(rfcSecret, time.Unix(tt.unix, 0).UTC())
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "unix=%d", tt.unix)
	}
}

func TestTOTP_Counter(t *testing.T) {
	engine := NewTOTP("ToolVault", 30, 1, otp.DigitsSix)

	assert.Equal(t, uint64(1), engine.Counter(time.Unix(59, 0)))
	assert.Equal(t, uint64(2), engine.Counter(time.Unix(60, 0)))
	assert.Equal(t, uint64(37037036), engine.Counter(time.Unix(1111111109, 0)))
}

func TestTOTP_Verify_CurrentStep(t *testing.T) {
	engine := NewTOTP("ToolVault", 30, 1, otp.DigitsSix)
	now := time.Unix(1_700_000_000, 0).UTC()

	code, err := engine.CodeAt(rfcSecret, now)
	require.NoError(t, err)

	counter, err := engine.Verify(code, rfcSecret, now, 0)
	require.NoError(t, err)
	assert.Equal(t, engine.Counter(now), counter)
}

func TestTOTP_Verify_DriftWindow(t *testing.T) {
	engine := NewTOTP("ToolVault", 30, 1, otp.DigitsSix)
	now := time.Unix(1_700_000_000, 0).UTC()

	tests := []struct {
		name   string
		codeAt time.Time
		ok     bool
	}{
		{name: "previous step accepted", codeAt: now.Add(-30 * time.Second), ok: true},
		{name: "next step accepted", codeAt: now.Add(30 * time.Second), ok: true},
		{name: "two steps behind rejected", codeAt: now.Add(-60 * time.Second), ok: false},
		{name: "two steps ahead rejected", codeAt: now.Add(60 * time.Second), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := engine.CodeAt(rfcSecret, tt.codeAt)
			require.NoError(t, err)

			counter, err := engine.Verify(code, rfcSecret, now, 0)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, engine.Counter(tt.codeAt), counter)
			} else {
				assert.ErrorIs(t, err, ErrCodeMismatch)
			}
		})
	}
}

func TestTOTP_Verify_RejectsReplay(t *testing.T) {
	engine := NewTOTP("ToolVault", 30, 1, otp.DigitsSix)
	now := time.Unix(1_700_000_000, 0).UTC()

	code, err := engine.CodeAt(rfcSecret, now)
	require.NoError(t, err)

	counter, err := engine.Verify(code, rfcSecret, now, 0)
	require.NoError(t, err)

	// Same code again with the accepted counter persisted.
	_, err = engine.Verify(code, rfcSecret, now, counter)
	assert.ErrorIs(t, err, ErrCodeReplayed)

	// A code from an earlier step is also a replay once a later counter
	// has been accepted.
	earlier, err := engine.CodeAt(rfcSecret, now.Add(-30*time.Second))
	require.NoError(t, err)
	_, err = engine.Verify(earlier, rfcSecret, now, counter)
	assert.ErrorIs(t, err, ErrCodeReplayed)
}

func TestTOTP_Verify_InvalidFormat(t *testing.T) {
	engine := NewTOTP("ToolVault", 30, 1, otp.DigitsSix)
	now := time.Unix(1_700_000_000, 0).UTC()

	_, err := engine.Verify("12345", rfcSecret, now, 0)
	assert.ErrorIs(t, err, ErrInvalidCodeFormat)

	_, err = engine.Verify("12345a", rfcSecret, now, 0)
	assert.ErrorIs(t, err, ErrInvalidCodeFormat)
}

func TestTOTP_Generate(t *testing.T) {
	engine := NewTOTP("ToolVault", 30, 1, otp.DigitsSix)

	secret, uri, err := engine.Generate("user@toolvault.dev")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Contains(t, uri, "otpauth://totp/")
	assert.Contains(t, uri, "issuer=ToolVault")
}

func TestTOTP_URI(t *testing.T) {
	engine := NewTOTP("ToolVault", 30, 1, otp.DigitsSix)

	uri := engine.URI(rfcSecret, "user@toolvault.dev")

	parsed, err := url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", parsed.Scheme)
	assert.Equal(t, "totp", parsed.Host)
	assert.Equal(t, rfcSecret, parsed.Query().Get("secret"))
	assert.Equal(t, "ToolVault", parsed.Query().Get("issuer"))
	assert.Equal(t, "30", parsed.Query().Get("period"))
}

func TestNewTOTP_Defaults(t *testing.T) {
	engine := NewTOTP("ToolVault", 0, 0, otp.Digits(4))

	assert.Equal(t, uint(30), engine.period)
	assert.Equal(t, otp.DigitsSix, engine.digits)
}
