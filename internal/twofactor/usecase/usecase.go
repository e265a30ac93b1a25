// Package usecase orchestrates two-factor enrollment, verification, and
// recovery flows on top of the storage and messaging ports.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/toolvault/toolvault/internal/pkg/clock"
	"github.com/toolvault/toolvault/internal/pkg/config"
	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/pkg/hash"
	"github.com/toolvault/toolvault/internal/pkg/idempotency"
	"github.com/toolvault/toolvault/internal/pkg/instrument"
	"github.com/toolvault/toolvault/internal/pkg/jwt"
	"github.com/toolvault/toolvault/internal/pkg/otp"
	"github.com/toolvault/toolvault/internal/pkg/recovery"
	"github.com/toolvault/toolvault/internal/pkg/secretbox"
	"github.com/toolvault/toolvault/internal/pkg/uid"
	"github.com/toolvault/toolvault/internal/pkg/validator"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

// ChallengeIssuedEvent carries a freshly issued challenge to the delivery
// consumer. Code is plaintext here and nowhere else.
type ChallengeIssuedEvent struct {
	UserID      int64
	Email       string
	ChallengeID int64
	Code        string
	ExpiresAt   time.Time
}

// AuditEvent reports a state transition or verification attempt for
// security monitoring.
type AuditEvent struct {
	UserID   int64
	Action   entity.AuditAction
	Success  bool
	At       time.Time
	Metadata map[string]string
}

type repoMessaging interface {
	PublishChallengeIssued(ctx context.Context, msg ChallengeIssuedEvent) error
	PublishAudit(ctx context.Context, msg AuditEvent) error
}

type repoDB interface {
	GetAccount(ctx context.Context, userID int64) (*entity.Account, error)
	GetSettings(ctx context.Context, userID int64) (*entity.Settings, error)

	SavePendingTOTP(ctx context.Context, userID int64, secret []byte, now time.Time) error
	ConfirmTOTP(ctx context.Context, userID, counter int64, now time.Time) error
	ConfirmEmail(ctx context.Context, userID int64, now time.Time) (bool, error)
	AdvanceCounter(ctx context.Context, userID, counter int64) (bool, error)
	DisableTwoFactor(ctx context.Context, userID int64, now time.Time) error

	CreateChallenge(ctx context.Context, in entity.Challenge) error
	GetChallenge(ctx context.Context, id, userID int64) (*entity.Challenge, error)
	ConsumeChallenge(ctx context.Context, id int64, now time.Time) (bool, error)
	DeleteFinishedChallenges(ctx context.Context, now time.Time) (int64, error)

	GetUnusedRecoveryCodes(ctx context.Context, userID int64) ([]entity.RecoveryCode, error)
	CountUnusedRecoveryCodes(ctx context.Context, userID int64) (int64, error)
	ConsumeRecoveryCode(ctx context.Context, id int64, now time.Time) (bool, error)
	ReplaceRecoveryCodes(ctx context.Context, userID int64, codes []entity.RecoveryCode) error

	IncrementFailedAttempts(ctx context.Context, userID int64, now, staleBefore time.Time) (int, error)
	LockAccount(ctx context.Context, userID int64, until time.Time) error
	ResetLockout(ctx context.Context, userID int64) error
}

// Usecase coordinates every two-factor operation. It is the only place
// that mutates two-factor state.
type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	argon2id      hash.Hash
	secrets       secretbox.Codec
	recovery      recovery.Generator
	totp          otp.Engine
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
}

// Dependency bundles everything a Usecase needs.
type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Argon2id      hash.Hash
	Secrets       secretbox.Codec
	Recovery      recovery.Generator
	Totp          otp.Engine
	UID           uid.NumberID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		argon2id:      dep.Argon2id,
		secrets:       dep.Secrets,
		recovery:      dep.Recovery,
		totp:          dep.Totp,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("twofactor.usecase").Start(ctx, name)
}

// errInvalidCode is the single user-visible failure for mismatch, expiry,
// reuse, and unknown codes, so responses never reveal which one happened.
func errInvalidCode() error {
	return goerror.NewBusiness("Invalid or expired code", goerror.CodeUnauthorized)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// audit publishes a security event. Failures are logged, never propagated;
// auditing is for monitoring, not correctness.
func (s *Usecase) audit(ctx context.Context, userID int64, action entity.AuditAction, success bool, md map[string]string) {
	err := s.repoMessaging.PublishAudit(ctx, AuditEvent{
		UserID:   userID,
		Action:   action,
		Success:  success,
		At:       s.clock.Now(),
		Metadata: md,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish audit event", "user_id", userID, "action", string(action), "error", err)
	}
}

// issueSessionToken returns an access token whose second-factor claim is
// satisfied, for step-up flows.
func (s *Usecase) issueSessionToken(ctx context.Context, userID int64, email string) (string, error) {
	token, err := s.jwt.Generate(userID, email, true)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}
	return token, nil
}
