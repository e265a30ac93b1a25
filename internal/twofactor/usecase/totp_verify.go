package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

type VerifyTOTPInput struct {
	Code string `validate:"required,otpcode"`
}

type VerifyTOTPOutput struct {
	AccessToken string
}

// VerifyTOTP performs the login-time step-up check against the confirmed
// authenticator factor and returns a fully verified session token.
func (s *Usecase) VerifyTOTP(ctx context.Context, in VerifyTOTPInput) (*VerifyTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyTOTP")
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
		slog.WarnContext(ctx, "step-up attempted without twofactor settings", "user_id", clm.UserID)
		return nil, errInvalidCode()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get twofactor settings", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !st.Confirmed() || st.Method != entity.MethodTOTP || len(st.Secret) == 0 {
		slog.WarnContext(ctx, "step-up attempted without confirmed totp factor", "user_id", st.UserID)
		return nil, errInvalidCode()
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
		slog.WarnContext(ctx, "totp step-up code rejected", "user_id", st.UserID, "reason", err)
		s.recordFailure(ctx, st.UserID)
		s.audit(ctx, st.UserID, entity.AuditTOTPVerified, false, nil)
		return nil, errInvalidCode()
	}

	// Advancing the counter is conditional in storage; losing the race to a
	// concurrent verification of the same code makes this attempt a replay.
	advanced, err := s.repoDB.AdvanceCounter(ctx, st.UserID, int64(counter))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo advance totp counter", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !advanced {
		slog.WarnContext(ctx, "totp counter already consumed", "user_id", st.UserID, "counter", counter)
		s.recordFailure(ctx, st.UserID)
		s.audit(ctx, st.UserID, entity.AuditTOTPVerified, false, nil)
		return nil, errInvalidCode()
	}

	token, err := s.issueSessionToken(ctx, st.UserID, clm.UserEmail)
	if err != nil {
		return nil, err
	}

	s.recordSuccess(ctx, st.UserID)
	s.audit(ctx, st.UserID, entity.AuditTOTPVerified, true, nil)

	return &VerifyTOTPOutput{AccessToken: token}, nil
}
