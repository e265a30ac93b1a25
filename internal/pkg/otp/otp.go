package otp

import (
	"crypto/subtle"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

var (
	// ErrCodeMismatch indicates the code matched no counter in the window.
	ErrCodeMismatch = errors.New("otp: code does not match any counter in window")
	// ErrCodeReplayed indicates the code matched only an already-consumed counter.
	ErrCodeReplayed = errors.New("otp: code was already used")
	// ErrInvalidCodeFormat indicates the code has the wrong length or charset.
	ErrInvalidCodeFormat = errors.New("otp: invalid code format")
)

// Engine defines the contract for TOTP operations.
type Engine interface {
	// Generate creates a secret and provisioning URI for an account name.
	Generate(accountName string) (secret string, uri string, err error)
	// CodeAt creates the TOTP code for the given secret and time.
	CodeAt(secret string, at time.Time) (string, error)
	// Counter returns the time-step counter for the given time.
	Counter(at time.Time) uint64
	// Verify checks a code against the drift window around at. lastCounter
	// is the highest counter already consumed for this secret; counters at
	// or below it are rejected as replays. On success it returns the
	// counter the code matched, to be persisted by the caller.
	Verify(code, secret string, at time.Time, lastCounter uint64) (uint64, error)
	// URI rebuilds the provisioning URI for an existing secret.
	URI(secret, accountName string) string
}

// TOTP implements Engine on SHA-1 time-based codes.
type TOTP struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP engine with sensible defaults.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it uses
// the common 30-second period. skew is the number of adjacent time steps
// accepted on each side of the current one.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = 30
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: digits,
	}
}

// Generate creates a secret and provisioning URI for an account name.
func (o *TOTP) Generate(accountName string) (secret string, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.period,
		SecretSize:  20, // RFC 4226/6238 recommendation
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// URI rebuilds the provisioning URI for an existing secret, mirroring the
// URL produced by Generate.
func (o *TOTP) URI(secret, accountName string) string {
	params := url.Values{}
	params.Set("secret", secret)
	params.Set("issuer", o.issuer)
	params.Set("period", strconv.FormatUint(uint64(o.period), 10))
	params.Set("algorithm", otp.AlgorithmSHA1.String())
	params.Set("digits", o.digits.String())

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + o.issuer + ":" + accountName,
		RawQuery: params.Encode(),
	}
	return u.String()
}

// CodeAt creates the TOTP code for the given secret and time.
func (o *TOTP) CodeAt(secret string, at time.Time) (string, error) {
	return hotp.GenerateCodeCustom(secret, o.Counter(at), hotp.ValidateOpts{
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// Counter returns the time-step counter for the given time.
func (o *TOTP) Counter(at time.Time) uint64 {
	return uint64(at.Unix()) / uint64(o.period)
}

// Verify checks a code against every counter in [current-skew, current+skew].
//
// The standard validators only report valid/invalid; here each candidate
// counter is derived individually so the matched counter can be returned
// and counters at or below lastCounter can be refused outright. Every
// candidate in the window is evaluated regardless of earlier matches, so
// verification time does not reveal which counter matched.
func (o *TOTP) Verify(code, secret string, at time.Time, lastCounter uint64) (uint64, error) {
	if len(code) != o.digits.Length() {
		return 0, ErrInvalidCodeFormat
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return 0, ErrInvalidCodeFormat
		}
	}

	current := o.Counter(at)

	var (
		matched  uint64
		found    bool
		replayed bool
	)

	for delta := -int64(o.skew); delta <= int64(o.skew); delta++ {
		candidate := int64(current) + delta
		if candidate < 0 {
			continue
		}

		expected, err := hotp.GenerateCodeCustom(secret, uint64(candidate), hotp.ValidateOpts{
			Digits:    o.digits,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return 0, err
		}

		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			if uint64(candidate) <= lastCounter && lastCounter > 0 {
				replayed = true
				continue
			}
			if !found || uint64(candidate) > matched {
				matched = uint64(candidate)
				found = true
			}
		}
	}

	if found {
		return matched, nil
	}
	if replayed {
		return 0, ErrCodeReplayed
	}

	return 0, ErrCodeMismatch
}
