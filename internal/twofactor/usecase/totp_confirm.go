package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

type ConfirmTOTPInput struct {
	Code string `validate:"required,otpcode"`
}

type ConfirmTOTPOutput struct {
	RecoveryCodes []string
}

// ConfirmTOTP verifies the first code from the authenticator app, marks the
// factor confirmed, and issues the initial recovery code set.
func (s *Usecase) ConfirmTOTP(ctx context.Context, in ConfirmTOTPInput) (*ConfirmTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "ConfirmTOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.repoDB.GetSettings(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Two-factor setup has not been started", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get twofactor settings", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if st.Confirmed() {
		return nil, goerror.NewBusiness("Two-factor authentication is already enabled", goerror.CodeConflict)
	}
	if st.Method != entity.MethodTOTP || len(st.Secret) == 0 {
		return nil, goerror.NewBusiness("Two-factor setup has not been started", goerror.CodeConflict)
	}

	if err := s.checkAllowed(ctx, st); err != nil {
		return nil, err
	}

	secret, err := s.decryptSecret(ctx, st.UserID, st.Secret)
	if err != nil {
		return nil, err
	}

	counter, err := s.totp.Verify(in.Code, secret, s.clock.Now(), uint64(st.LastCounter))
	if err != nil {
		slog.WarnContext(ctx, "totp setup code rejected", "user_id", st.UserID, "reason", err)
		s.recordFailure(ctx, st.UserID)
		s.audit(ctx, st.UserID, entity.AuditTOTPConfirmed, false, nil)
		return nil, errInvalidCode()
	}

	if err := s.repoDB.ConfirmTOTP(ctx, st.UserID, int64(counter), s.clock.Now()); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			// A concurrent confirmation won the conditional update.
			return nil, goerror.NewBusiness("Two-factor authentication is already enabled", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo confirm totp", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codes, err := s.issueRecoverySet(ctx, st.UserID)
	if err != nil {
		return nil, err
	}

	s.recordSuccess(ctx, st.UserID)
	s.audit(ctx, st.UserID, entity.AuditTOTPConfirmed, true, nil)

	return &ConfirmTOTPOutput{RecoveryCodes: codes}, nil
}
