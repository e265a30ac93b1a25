package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	pquerna "github.com/pquerna/otp"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

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
	"github.com/toolvault/toolvault/internal/pkg/validator"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

const testUserID int64 = 42

// memRepo is an in-memory repoDB. All single-use transitions are guarded
// by the mutex the same way the SQL layer guards them with conditional
// updates, so concurrency tests exercise real CAS semantics.
type memRepo struct {
	mu         sync.Mutex
	accounts   map[int64]entity.Account
	settings   map[int64]*entity.Settings
	challenges map[int64]*entity.Challenge
	codes      []*entity.RecoveryCode
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts:   map[int64]entity.Account{},
		settings:   map[int64]*entity.Settings{},
		challenges: map[int64]*entity.Challenge{},
	}
}

func (r *memRepo) GetAccount(_ context.Context, userID int64) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &a, nil
}

func (r *memRepo) GetSettings(_ context.Context, userID int64) (*entity.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.settings[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (r *memRepo) ensureSettingsLocked(userID int64) *entity.Settings {
	st, ok := r.settings[userID]
	if !ok {
		st = &entity.Settings{UserID: userID}
		r.settings[userID] = st
	}
	return st
}

func (r *memRepo) SavePendingTOTP(_ context.Context, userID int64, secret []byte, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.ensureSettingsLocked(userID)
	st.Method = entity.MethodTOTP
	st.Secret = secret
	st.ConfirmedAt = nil
	st.LastCounter = 0
	st.UpdatedAt = now
	return nil
}

func (r *memRepo) ConfirmTOTP(_ context.Context, userID, counter int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.settings[userID]
	if !ok || len(st.Secret) == 0 || st.ConfirmedAt != nil {
		return goerror.ErrConflict
	}
	at := now
	st.ConfirmedAt = &at
	st.LastCounter = counter
	st.UpdatedAt = now
	return nil
}

func (r *memRepo) ConfirmEmail(_ context.Context, userID int64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.ensureSettingsLocked(userID)
	if st.Method != entity.MethodNone || st.ConfirmedAt != nil {
		return false, nil
	}
	at := now
	st.Method = entity.MethodEmail
	st.ConfirmedAt = &at
	st.UpdatedAt = now
	return true, nil
}

func (r *memRepo) AdvanceCounter(_ context.Context, userID, counter int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.settings[userID]
	if !ok || st.LastCounter >= counter {
		return false, nil
	}
	st.LastCounter = counter
	return true, nil
}

func (r *memRepo) DisableTwoFactor(_ context.Context, userID int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.settings[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	st.Method = entity.MethodNone
	st.Secret = nil
	st.ConfirmedAt = nil
	st.LastCounter = 0
	st.FailedAttempts = 0
	st.LockedUntil = nil
	st.UpdatedAt = now

	for id, ch := range r.challenges {
		if ch.UserID == userID {
			delete(r.challenges, id)
		}
	}

	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

func (r *memRepo) CreateChallenge(_ context.Context, in entity.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := in
	r.challenges[in.ID] = &cp
	return nil
}

func (r *memRepo) GetChallenge(_ context.Context, id, userID int64) (*entity.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.challenges[id]
	if !ok || ch.UserID != userID {
		return nil, goerror.ErrNotFound
	}
	cp := *ch
	return &cp, nil
}

func (r *memRepo) ConsumeChallenge(_ context.Context, id int64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.challenges[id]
	if !ok || ch.ConsumedAt != nil || !now.Before(ch.ExpiresAt) {
		return false, nil
	}
	at := now
	ch.ConsumedAt = &at
	return true, nil
}

func (r *memRepo) DeleteFinishedChallenges(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, ch := range r.challenges {
		if ch.ConsumedAt != nil || !now.Before(ch.ExpiresAt) {
			delete(r.challenges, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memRepo) GetUnusedRecoveryCodes(_ context.Context, userID int64) ([]entity.RecoveryCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.FilterMap(r.codes, func(c *entity.RecoveryCode, _ int) (entity.RecoveryCode, bool) {
		return *c, c.UserID == userID && c.UsedAt == nil
	}), nil
}

func (r *memRepo) CountUnusedRecoveryCodes(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := lo.CountBy(r.codes, func(c *entity.RecoveryCode) bool {
		return c.UserID == userID && c.UsedAt == nil
	})
	return int64(n), nil
}

func (r *memRepo) ConsumeRecoveryCode(_ context.Context, id int64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.codes {
		if c.ID == id {
			if c.UsedAt != nil {
				return false, nil
			}
			at := now
			c.UsedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ReplaceRecoveryCodes(_ context.Context, userID int64, codes []entity.RecoveryCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	r.codes = kept

	for _, c := range codes {
		cp := c
		r.codes = append(r.codes, &cp)
	}
	return nil
}

func (r *memRepo) IncrementFailedAttempts(_ context.Context, userID int64, now, staleBefore time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.ensureSettingsLocked(userID)
	if st.UpdatedAt.Before(staleBefore) {
		st.FailedAttempts = 0
	}
	st.FailedAttempts++
	st.UpdatedAt = now
	return st.FailedAttempts, nil
}

func (r *memRepo) LockAccount(_ context.Context, userID int64, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.ensureSettingsLocked(userID)
	st.LockedUntil = &until
	st.FailedAttempts = 0
	return nil
}

func (r *memRepo) ResetLockout(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.ensureSettingsLocked(userID)
	st.FailedAttempts = 0
	st.LockedUntil = nil
	return nil
}

// memMessaging records published events.
type memMessaging struct {
	mu     sync.Mutex
	issued []ChallengeIssuedEvent
	audits []AuditEvent
}

func (m *memMessaging) PublishChallengeIssued(_ context.Context, msg ChallengeIssuedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued = append(m.issued, msg)
	return nil
}

func (m *memMessaging) PublishAudit(_ context.Context, msg AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, msg)
	return nil
}

func (m *memMessaging) lastIssued(t *testing.T) ChallengeIssuedEvent {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.issued)
	return m.issued[len(m.issued)-1]
}

func (m *memMessaging) auditActions() []entity.AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.AuditAction, 0, len(m.audits))
	for _, a := range m.audits {
		out = append(out, a.Action)
	}
	return out
}

// passIdemp runs every operation; duplicate suppression has its own tests
// in the idempotency package.
type passIdemp struct{}

func (passIdemp) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateNone, nil
}
func (passIdemp) MarkCompleted(context.Context, string, time.Duration) error { return nil }
func (passIdemp) MarkFailed(context.Context, string, time.Duration) error { return nil }
func (passIdemp) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...idempotency.Option) error {
	return fn(ctx)
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type staticStringID struct{}

func (staticStringID) Generate() string { return "0194fdc2-fa2f-4cc0-81d3-ff12045b73c8" }

const testConfigYAML = `
modules:
  twofactor:
    lockout_threshold: 5
    lockout_minutes: 15
    failure_window_minutes: 15
    challenge_ttl_minutes: 10
    challenge_resend_seconds: 60
    qr_size: 128
`

type fixture struct {
	uc     *Usecase
	repo   *memRepo
	mq     *memMessaging
	clock  *clock.Fixed
	engine *otp.TOTP
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	v10, err := validator.NewV10Validator()
	require.NoError(t, err)

	fixed := &clock.Fixed{At: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "toolvault",
		Audiences: []string{"toolvault"},
		TTL:       15 * time.Minute,
		Clock:     fixed,
		UUID:      staticStringID{},
	})
	require.NoError(t, err)

	repo := newMemRepo()
	repo.accounts[testUserID] = entity.Account{ID: testUserID, Email: "pat@toolvault.dev"}

	mq := &memMessaging{}
	engine := otp.NewTOTP("ToolVault", 30, 1, pquerna.DigitsSix)

	uc := New(Dependency{
		RepoDB:        repo,
		RepoMessaging: mq,
		Idempotency:   passIdemp{},
		Validator:     v10,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("challenge-hmac-test-secret"),
		Argon2id:      hash.NewArgon2id("recovery-pepper-test"),
		Secrets:       secretbox.NewAESGCM(secretbox.StaticKeyProvider{KeyBytes: []byte(strings.Repeat("s", 32))}),
		Recovery:      recovery.NewCodes(),
		Totp:          engine,
		UID:           &seqID{},
		Clock:         fixed,
		JWT:           signer,
		Instrument:    instrument.NewNoop(),
	})

	return &fixture{uc: uc, repo: repo, mq: mq, clock: fixed, engine: engine}
}

func (f *fixture) authCtx() context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		UserID:    testUserID,
		UserEmail: "pat@toolvault.dev",
	})
}

// enrollTOTP runs enable+confirm and returns the plaintext secret and the
// recovery codes handed to the user.
func (f *fixture) enrollTOTP(t *testing.T) (string, []string) {
	t.Helper()
	ctx := f.authCtx()

	_, err := f.uc.EnableTOTP(ctx)
	require.NoError(t, err)

	secret := f.storedSecret(t)
	code, err := f.engine.CodeAt(secret, f.clock.At)
	require.NoError(t, err)

	out, err := f.uc.ConfirmTOTP(ctx, ConfirmTOTPInput{Code: code})
	require.NoError(t, err)
	require.Len(t, out.RecoveryCodes, recovery.SetSize)

	return secret, out.RecoveryCodes
}

// storedSecret decrypts the persisted seed the same way the usecase does,
// so tests can compute valid codes.
func (f *fixture) storedSecret(t *testing.T) string {
	t.Helper()

	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotEmpty(t, st.Secret)

	plaintext, err := secretbox.NewAESGCM(secretbox.StaticKeyProvider{KeyBytes: []byte(strings.Repeat("s", 32))}).
		Open(st.Secret, secretbox.Scope{UserID: testUserID, Purpose: secretbox.PurposeTOTPSeed})
	require.NoError(t, err)
	return string(plaintext)
}
