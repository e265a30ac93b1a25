package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/pkg/recovery"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

type VerifyRecoveryCodeInput struct {
	Code string `validate:"required,recoverycode"`
}

type VerifyRecoveryCodeOutput struct {
	AccessToken string
	Remaining   int64
}

// VerifyRecoveryCode redeems one backup code. Each code works exactly once;
// the spend is a conditional update so concurrent redemptions of the same
// code cannot both succeed. A code that matches nothing unused is reported
// exactly like a wrong code.
func (s *Usecase) VerifyRecoveryCode(ctx context.Context, in VerifyRecoveryCodeInput) (*VerifyRecoveryCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyRecoveryCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.repoDB.GetSettings(ctx, clm.UserID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get twofactor settings", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.checkAllowed(ctx, st); err != nil {
		return nil, err
	}

	fail := func(reason string) error {
		slog.WarnContext(ctx, "recovery code verification failed", "user_id", clm.UserID, "reason", reason)
		s.recordFailure(ctx, clm.UserID)
		s.audit(ctx, clm.UserID, entity.AuditRecoveryCodeConsumed, false, nil)
		return errInvalidCode()
	}

	unused, err := s.repoDB.GetUnusedRecoveryCodes(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get unused recovery codes", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	submitted := recovery.Normalize(in.Code)

	var match *entity.RecoveryCode
	for i := range unused {
		if s.argon2id.Verify(unused[i].CodeHash, submitted) {
			match = &unused[i]
			break
		}
	}
	if match == nil {
		return nil, fail("not_found")
	}

	spent, err := s.repoDB.ConsumeRecoveryCode(ctx, match.ID, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume recovery code", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !spent {
		return nil, fail("already_used")
	}

	remaining, err := s.repoDB.CountUnusedRecoveryCodes(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count unused recovery codes", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.issueSessionToken(ctx, clm.UserID, clm.UserEmail)
	if err != nil {
		return nil, err
	}

	s.recordSuccess(ctx, clm.UserID)
	s.audit(ctx, clm.UserID, entity.AuditRecoveryCodeConsumed, true, nil)

	return &VerifyRecoveryCodeOutput{
		AccessToken: token,
		Remaining:   remaining,
	}, nil
}
