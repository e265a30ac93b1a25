package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyRequest struct {
	UserID int64  `validate:"required,gt=0"`
	Code   string `validate:"required,otpcode"`
}

type recoveryRequest struct {
	Code string `validate:"required,recoverycode"`
}

func TestV10Validator_Valid(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(verifyRequest{UserID: 1, Code: "123456"}))
	assert.NoError(t, v.Validate(verifyRequest{UserID: 1, Code: "12345678"}))
	assert.NoError(t, v.Validate(recoveryRequest{Code: "A2C4E-F6H8K"}))
	assert.NoError(t, v.Validate(recoveryRequest{Code: "A2C4EF6H8K"}))
}

func TestV10Validator_Invalid(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	err = v.Validate(verifyRequest{UserID: 0, Code: "12ab56"})
	require.Error(t, err)

	var fields V10ValidationError
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "user_id")
	assert.Contains(t, fields, "code")
	assert.NotEmpty(t, err.Error())
}

func TestV10Validator_RecoveryCodeFormat(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	err = v.Validate(recoveryRequest{Code: "too-short"})
	require.Error(t, err)

	var fields V10ValidationError
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields["code"], "XXXXX-XXXXX")
}
