package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodString(t *testing.T) {
	assert.Equal(t, "none", MethodNone.String())
	assert.Equal(t, "totp", MethodTOTP.String())
	assert.Equal(t, "email", MethodEmail.String())
	assert.Equal(t, "none", Method(99).String())
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "email", ChannelEmail.String())
	assert.Equal(t, "telegram", ChannelTelegram.String())
	assert.Equal(t, "unknown", ChannelUnknown.String())
	assert.Equal(t, "unknown", Channel(99).String())
}
