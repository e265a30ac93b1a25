package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/pkg/idempotency"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

const (
	challengeCodeLength = 6

	defaultChallengeTTL       = 10 * time.Minute
	defaultChallengeResendTTL = 60 * time.Second
)

type RequestChallengeOutput struct {
	ChallengeID int64
	ExpiresAt   time.Time
}

// RequestChallenge issues a fresh email one-time code for the authenticated
// account and hands it to the delivery consumer. It works before the factor
// is confirmed, so the same flow serves enablement and login step-up.
// Earlier challenges stay verifiable until consumed or expired; the client
// submits the id it was just given.
func (s *Usecase) RequestChallenge(ctx context.Context) (*RequestChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestChallenge")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
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

	resendTTL := s.cfg.GetSecond("modules.twofactor.challenge_resend_seconds")
	if resendTTL <= 0 {
		resendTTL = defaultChallengeResendTTL
	}

	var out *RequestChallengeOutput
	err = s.idemp.Exec(ctx, fmt.Sprintf("twofactor:challenge:%d", account.ID), func(ctx context.Context) error {
		out, err = s.issueChallenge(ctx, account)
		return err
	}, idempotency.WithLockDuration(resendTTL), idempotency.WithStateTTL(resendTTL))

	if errors.Is(err, idempotency.ErrAlreadyInProgress) || errors.Is(err, idempotency.ErrAlreadyCompleted) {
		return nil, goerror.NewBusiness("A code was sent recently, please wait before requesting another", goerror.CodeTooManyRequest)
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Usecase) issueChallenge(ctx context.Context, account *entity.Account) (*RequestChallengeOutput, error) {
	code, err := randomNumericCode(challengeCodeLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate challenge code", "user_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash challenge code", "user_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.cfg.GetMinute("modules.twofactor.challenge_ttl_minutes")
	if ttl <= 0 {
		ttl = defaultChallengeTTL
	}

	now := s.clock.Now()
	challenge := entity.Challenge{
		ID:        s.uid.Generate(),
		UserID:    account.ID,
		CodeHash:  string(codeHash),
		Channel:   entity.ChannelEmail,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.repoDB.CreateChallenge(ctx, challenge); err != nil {
		slog.ErrorContext(ctx, "failed to repo create challenge", "user_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Delivery failure does not roll back issuance; the challenge stays
	// verifiable and expires on its own.
	err = s.repoMessaging.PublishChallengeIssued(ctx, ChallengeIssuedEvent{
		UserID:      account.ID,
		Email:       account.Email,
		ChallengeID: challenge.ID,
		Code:        code,
		ExpiresAt:   challenge.ExpiresAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish challenge issued event",
			"user_id", account.ID, "challenge_id", challenge.ID, "error", err)
	}

	s.audit(ctx, account.ID, entity.AuditChallengeRequested, true, map[string]string{
		"channel": challenge.Channel.String(),
	})

	return &RequestChallengeOutput{
		ChallengeID: challenge.ID,
		ExpiresAt:   challenge.ExpiresAt,
	}, nil
}

// randomNumericCode draws each digit independently from crypto/rand; the
// code shares no entropy with any stored secret.
func randomNumericCode(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
