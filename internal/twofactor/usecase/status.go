package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/pkg/secretbox"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

type StatusOutput struct {
	Method                 entity.Method
	Confirmed              bool
	ConfirmedAt            *time.Time
	MaskedSecret           string
	ProvisioningURI        string
	RemainingRecoveryCodes int64
	LockedUntil            *time.Time
}

// Status reports the account's two-factor state, including the masked
// secret and provisioning URI while a TOTP factor exists.
func (s *Usecase) Status(ctx context.Context) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.repoDB.GetSettings(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return &StatusOutput{Method: entity.MethodNone}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get twofactor settings", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &StatusOutput{
		Method:      st.Method,
		Confirmed:   st.Confirmed(),
		ConfirmedAt: st.ConfirmedAt,
		LockedUntil: st.LockedUntil,
	}

	if len(st.Secret) > 0 {
		secret, err := s.decryptSecret(ctx, st.UserID, st.Secret)
		if err != nil {
			return nil, err
		}

		account, err := s.repoDB.GetAccount(ctx, st.UserID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo get account", "user_id", st.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}

		out.MaskedSecret = secretbox.Mask(secret)
		out.ProvisioningURI = s.totp.URI(secret, account.Email)
	}

	remaining, err := s.repoDB.CountUnusedRecoveryCodes(ctx, st.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count unused recovery codes", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	out.RemainingRecoveryCodes = remaining

	return out, nil
}
