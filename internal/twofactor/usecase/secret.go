package usecase

import (
	"context"
	"log/slog"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/pkg/secretbox"
)

// decryptSecret opens the stored TOTP seed. A failure here means key or
// ciphertext corruption, never user error, so it surfaces as a server
// error and is logged for operational alerting.
func (s *Usecase) decryptSecret(ctx context.Context, userID int64, ciphertext []byte) (string, error) {
	plaintext, err := s.secrets.Open(ciphertext, secretbox.Scope{
		UserID:  userID,
		Purpose: secretbox.PurposeTOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}
	return string(plaintext), nil
}
