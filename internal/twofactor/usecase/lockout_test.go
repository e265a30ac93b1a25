package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
)

func TestLockout_ThresholdLocksAccount(t *testing.T) {
	f := newFixture(t)
	secret, _ := f.enrollTOTP(t)
	ctx := f.authCtx()

	f.clock.At = f.clock.At.Add(30 * time.Second)
	valid, err := f.engine.CodeAt(secret, f.clock.At)
	require.NoError(t, err)

	for range 5 {
		_, err := f.uc.VerifyTOTP(ctx, VerifyTOTPInput{Code: wrongCode(valid)})
		requireBusinessCode(t, err, goerror.CodeUnauthorized)
	}

	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, st.LockedUntil)
	assert.Equal(t, f.clock.At.Add(15*time.Minute), *st.LockedUntil)
	assert.Zero(t, st.FailedAttempts)

	// Even the correct code is refused without being evaluated while
	// locked; the counter does not advance.
	_, err = f.uc.VerifyTOTP(ctx, VerifyTOTPInput{Code: valid})
	requireBusinessCode(t, err, goerror.CodeTooManyRequest)

	after, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, st.LastCounter, after.LastCounter)
}

func TestLockout_ExpiresAndResumes(t *testing.T) {
	f := newFixture(t)
	secret, _ := f.enrollTOTP(t)
	ctx := f.authCtx()

	f.clock.At = f.clock.At.Add(30 * time.Second)
	valid, err := f.engine.CodeAt(secret, f.clock.At)
	require.NoError(t, err)

	for range 5 {
		_, _ = f.uc.VerifyTOTP(ctx, VerifyTOTPInput{Code: wrongCode(valid)})
	}

	_, err = f.uc.VerifyTOTP(ctx, VerifyTOTPInput{Code: valid})
	requireBusinessCode(t, err, goerror.CodeTooManyRequest)

	// Past lockedUntil verification resumes with a fresh code.
	f.clock.At = f.clock.At.Add(16 * time.Minute)
	fresh, err := f.engine.CodeAt(secret, f.clock.At)
	require.NoError(t, err)

	out, err := f.uc.VerifyTOTP(ctx, VerifyTOTPInput{Code: fresh})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)

	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Nil(t, st.LockedUntil)
	assert.Zero(t, st.FailedAttempts)
}

func TestLockout_StaleFailuresExpire(t *testing.T) {
	f := newFixture(t)
	secret, _ := f.enrollTOTP(t)
	ctx := f.authCtx()

	f.clock.At = f.clock.At.Add(30 * time.Second)
	valid, err := f.engine.CodeAt(secret, f.clock.At)
	require.NoError(t, err)

	for range 4 {
		_, err := f.uc.VerifyTOTP(ctx, VerifyTOTPInput{Code: wrongCode(valid)})
		requireBusinessCode(t, err, goerror.CodeUnauthorized)
	}

	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 4, st.FailedAttempts)

	// A failure past the rolling window restarts the count instead of
	// reaching the threshold.
	f.clock.At = f.clock.At.Add(16 * time.Minute)
	fresh, err := f.engine.CodeAt(secret, f.clock.At)
	require.NoError(t, err)

	_, err = f.uc.VerifyTOTP(ctx, VerifyTOTPInput{Code: wrongCode(fresh)})
	requireBusinessCode(t, err, goerror.CodeUnauthorized)

	st, err = f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.FailedAttempts)
	assert.Nil(t, st.LockedUntil)
}

func TestLockout_SuccessResetsCounter(t *testing.T) {
	f := newFixture(t)
	ctx := f.authCtx()

	out, err := f.uc.RequestChallenge(ctx)
	require.NoError(t, err)
	code := f.mq.lastIssued(t).Code

	for range 2 {
		_, err := f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: wrongCode(code)})
		requireBusinessCode(t, err, goerror.CodeUnauthorized)
	}

	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.FailedAttempts)

	_, err = f.uc.VerifyChallenge(ctx, VerifyChallengeInput{ChallengeID: out.ChallengeID, Code: code})
	require.NoError(t, err)

	st, err = f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Zero(t, st.FailedAttempts)
	assert.Nil(t, st.LockedUntil)
}

func TestLockout_SharedAcrossFactors(t *testing.T) {
	f := newFixture(t)
	_, codes := f.enrollTOTP(t)
	ctx := f.authCtx()

	// Burn the counter with wrong recovery codes.
	for range 5 {
		_, err := f.uc.VerifyRecoveryCode(ctx, VerifyRecoveryCodeInput{Code: "AAAAA-AAAAA"})
		requireBusinessCode(t, err, goerror.CodeUnauthorized)
	}

	// The lock applies to every verification path, including a valid
	// recovery code.
	_, err := f.uc.VerifyRecoveryCode(ctx, VerifyRecoveryCodeInput{Code: codes[0]})
	requireBusinessCode(t, err, goerror.CodeTooManyRequest)
}
