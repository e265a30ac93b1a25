package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/pkg/secretbox"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

type EnableTOTPOutput struct {
	URI          string
	MaskedSecret string
}

// EnableTOTP provisions a fresh TOTP secret for the authenticated account.
// The factor stays pending until ConfirmTOTP succeeds; calling this again
// before confirmation replaces the pending secret.
func (s *Usecase) EnableTOTP(ctx context.Context) (*EnableTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "EnableTOTP")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.repoDB.GetSettings(ctx, clm.UserID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get twofactor settings", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if st.Confirmed() {
		return nil, goerror.NewBusiness("Two-factor authentication is already enabled", goerror.CodeConflict)
	}

	account, err := s.repoDB.GetAccount(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	secret, uri, err := s.totp.Generate(account.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ciphertext, err := s.secrets.Seal([]byte(secret), secretbox.Scope{
		UserID:  account.ID,
		Purpose: secretbox.PurposeTOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.SavePendingTOTP(ctx, account.ID, ciphertext, s.clock.Now()); err != nil {
		slog.ErrorContext(ctx, "failed to repo save pending totp", "user_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.audit(ctx, account.ID, entity.AuditTOTPEnabled, true, nil)

	return &EnableTOTPOutput{
		URI:          uri,
		MaskedSecret: secretbox.Mask(secret),
	}, nil
}
