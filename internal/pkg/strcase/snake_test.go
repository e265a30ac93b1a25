package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "UserID", want: "user_id"},
		{in: "Code", want: "code"},
		{in: "ChallengeID", want: "challenge_id"},
		{in: "HTTPServer", want: "http_server"},
		{in: "RecoveryCode", want: "recovery_code"},
		{in: "already_snake", want: "already_snake"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToLowerSnake(tt.in), tt.in)
	}
}
