package usecase

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

func TestRequestChallenge(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.RequestChallenge(f.authCtx())
	require.NoError(t, err)
	assert.NotZero(t, out.ChallengeID)
	assert.Equal(t, f.clock.At.Add(10*time.Minute), out.ExpiresAt)

	issued := f.mq.lastIssued(t)
	assert.Equal(t, testUserID, issued.UserID)
	assert.Equal(t, "pat@toolvault.dev", issued.Email)
	assert.Equal(t, out.ChallengeID, issued.ChallengeID)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), issued.Code)

	// Only the HMAC of the code is persisted.
	ch, err := f.repo.GetChallenge(context.Background(), out.ChallengeID, testUserID)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Code, ch.CodeHash)
	assert.Nil(t, ch.ConsumedAt)
}

func TestVerifyChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := f.authCtx()

	out, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	code := f.mq.lastIssued(t).Code

	verified, err := f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, verified.AccessToken)

	// Consumed is terminal; the same challenge never verifies again.
	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: code})
	requireBusinessCode(t, err, goerror.CodeUnauthorized)
}

func TestVerifyChallenge_EnrollsEmailFactor(t *testing.T) {
	f := newFixture(t)
	ctx := f.authCtx()

	out, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	code := f.mq.lastIssued(t).Code

	// With nothing set up, verifying the challenge is enablement.
	verified, err := f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, verified.AccessToken)

	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, entity.MethodEmail, st.Method)
	require.NotNil(t, st.ConfirmedAt)
	assert.Equal(t, f.clock.At, *st.ConfirmedAt)
	assert.Contains(t, f.mq.auditActions(), entity.AuditEmailConfirmed)
}

func TestVerifyChallenge_KeepsConfirmedTOTP(t *testing.T) {
	f := newFixture(t)
	f.enrollTOTP(t)
	ctx := f.authCtx()

	out, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	code := f.mq.lastIssued(t).Code

	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: code})
	require.NoError(t, err)

	// Step-up on a confirmed authenticator account never flips the factor.
	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, entity.MethodTOTP, st.Method)
	assert.NotContains(t, f.mq.auditActions(), entity.AuditEmailConfirmed)
}

func TestVerifyChallenge_KeepsPendingTOTPSetup(t *testing.T) {
	f := newFixture(t)
	ctx := f.authCtx()

	_, err := f.uc.EnableTOTP(ctx)
	require.NoError(t, err)

	out, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	code := f.mq.lastIssued(t).Code

	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: code})
	require.NoError(t, err)

	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, entity.MethodTOTP, st.Method)
	assert.Nil(t, st.ConfirmedAt)
	assert.NotEmpty(t, st.Secret)
}

func TestVerifyChallenge_WrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := f.authCtx()

	out, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	code := f.mq.lastIssued(t).Code

	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: wrongCode(code)})
	requireBusinessCode(t, err, goerror.CodeUnauthorized)

	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.FailedAttempts)

	// The right code still works afterwards.
	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: code})
	require.NoError(t, err)

	st, err = f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Zero(t, st.FailedAttempts)
}

func TestVerifyChallenge_UnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.VerifyChallenge(f.authCtx(), VerifyChallengeInput{ChallengeID: 99999, Code: "123456"})
	requireBusinessCode(t, err, goerror.CodeUnauthorized)
}

func TestVerifyChallenge_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := f.authCtx()

	out, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	code := f.mq.lastIssued(t).Code

	f.clock.At = f.clock.At.Add(10*time.Minute + time.Second)

	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: code})
	requireBusinessCode(t, err, goerror.CodeUnauthorized)
}

func TestVerifyChallenge_ConcurrentSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := f.authCtx()

	out, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	code := f.mq.lastIssued(t).Code

	const attempts = 2
	errs := make(chan error, attempts)

	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: code})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, failures int
	for err := range errs {
		if err == nil {
			successes++
		} else {
			requireBusinessCode(t, err, goerror.CodeUnauthorized)
			failures++
		}
	}

	assert.Equal(t, 1, successes, "exactly one concurrent verification may win")
	assert.Equal(t, 1, failures)
}

func TestVerifyChallenge_SupersededChallengeStillHonored(t *testing.T) {
	f := newFixture(t)
	ctx := f.authCtx()

	first, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	firstCode := f.mq.lastIssued(t).Code

	second, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	secondCode := f.mq.lastIssued(t).Code
	require.NotEqual(t, first.ChallengeID, second.ChallengeID)

	// The client verifies against the id it holds; an earlier unconsumed
	// challenge stays valid until it expires.
	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: first.ChallengeID, Code: firstCode})
	require.NoError(t, err)

	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: second.ChallengeID, Code: secondCode})
	require.NoError(t, err)
}

func TestSweepChallenges(t *testing.T) {
	f := newFixture(t)
	ctx := f.authCtx()

	consumed, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	code := f.mq.lastIssued(t).Code
	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: consumed.ChallengeID, Code: code})
	require.NoError(t, err)

	active, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)

	require.NoError(t, f.uc.SweepChallenges(context.Background()))

	_, err = f.repo.GetChallenge(context.Background(), consumed.ChallengeID, testUserID)
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	_, err = f.repo.GetChallenge(context.Background(), active.ChallengeID, testUserID)
	assert.NoError(t, err)

	assert.Contains(t, f.mq.auditActions(), entity.AuditChallengeRequested)
}
