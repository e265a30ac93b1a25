package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/pkg/qrcode"
)

const defaultQRSize = 256

type QRCodeOutput struct {
	PNG []byte
}

// QRCode renders the provisioning URI of the account's TOTP secret as a
// PNG for the enrollment screen.
func (s *Usecase) QRCode(ctx context.Context) (*QRCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "QRCode")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.repoDB.GetSettings(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Two-factor authentication is not set up", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get twofactor settings", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if len(st.Secret) == 0 {
		return nil, goerror.NewBusiness("Two-factor authentication is not set up", goerror.CodeNotFound)
	}

	secret, err := s.decryptSecret(ctx, st.UserID, st.Secret)
	if err != nil {
		return nil, err
	}

	account, err := s.repoDB.GetAccount(ctx, st.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	size := s.cfg.GetInt("modules.twofactor.qr_size")
	if size <= 0 {
		size = defaultQRSize
	}

	png, err := qrcode.PNG(s.totp.URI(secret, account.Email), size)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode provisioning qr code", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &QRCodeOutput{PNG: png}, nil
}
