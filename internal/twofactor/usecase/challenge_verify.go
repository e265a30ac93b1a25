package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

type VerifyChallengeInput struct {
	ChallengeID int64  `validate:"required,gt=0"`
	Code        string `validate:"required,otpcode"`
}

type VerifyChallengeOutput struct {
	AccessToken string
}

// VerifyChallenge checks a submitted email code against one challenge and
// consumes it. The consume is a single conditional update in storage, so
// two racing verifications of the same challenge can never both succeed.
func (s *Usecase) VerifyChallenge(ctx context.Context, in VerifyChallengeInput) (*VerifyChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyChallenge")
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

	if err := s.consumeChallenge(ctx, clm.UserID, in.ChallengeID, in.Code); err != nil {
		return nil, err
	}

	// Verifying a challenge with nothing set up is enablement: email
	// becomes the confirmed second factor. A pending or confirmed
	// authenticator-app setup stays untouched.
	if st == nil || st.Method == entity.MethodNone {
		enrolled, err := s.repoDB.ConfirmEmail(ctx, clm.UserID, s.clock.Now())
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo confirm email factor", "user_id", clm.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
		if enrolled {
			s.audit(ctx, clm.UserID, entity.AuditEmailConfirmed, true, nil)
		}
	}

	token, err := s.issueSessionToken(ctx, clm.UserID, clm.UserEmail)
	if err != nil {
		return nil, err
	}

	s.recordSuccess(ctx, clm.UserID)
	s.audit(ctx, clm.UserID, entity.AuditChallengeVerified, true, map[string]string{
		"challenge_id": strconv.FormatInt(in.ChallengeID, 10),
	})

	return &VerifyChallengeOutput{AccessToken: token}, nil
}

func (s *Usecase) consumeChallenge(ctx context.Context, userID, challengeID int64, code string) error {
	fail := func(reason string) error {
		slog.WarnContext(ctx, "challenge verification failed",
			"user_id", userID, "challenge_id", challengeID, "reason", reason)
		s.recordFailure(ctx, userID)
		s.audit(ctx, userID, entity.AuditChallengeVerified, false, map[string]string{
			"challenge_id": strconv.FormatInt(challengeID, 10),
		})
		return errInvalidCode()
	}

	challenge, err := s.repoDB.GetChallenge(ctx, challengeID, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		// Unknown ids surface exactly like a wrong code.
		return fail("not_found")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get challenge", "user_id", userID, "challenge_id", challengeID, "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	if challenge.Expired(now) {
		return fail("expired")
	}
	if challenge.ConsumedAt != nil {
		return fail("already_used")
	}

	// hash.Verify compares HMAC tags in constant time.
	if !s.hmac.Verify(challenge.CodeHash, code) {
		return fail("mismatch")
	}

	consumed, err := s.repoDB.ConsumeChallenge(ctx, challenge.ID, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume challenge", "user_id", userID, "challenge_id", challengeID, "error", err)
		return goerror.NewServer(err)
	}
	if !consumed {
		// A concurrent verification won the conditional update.
		return fail("already_used")
	}

	return nil
}
