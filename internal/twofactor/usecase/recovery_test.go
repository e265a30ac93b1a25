package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
)

func TestVerifyRecoveryCode_OneShot(t *testing.T) {
	f := newFixture(t)
	_, codes := f.enrollTOTP(t)
	ctx := f.authCtx()

	out, err := f.uc.VerifyRecoveryCode(ctx, VerifyRecoveryCodeInput{Code: codes[0]})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.Equal(t, int64(7), out.Remaining)

	// Spent is spent.
	_, err = f.uc.VerifyRecoveryCode(ctx, VerifyRecoveryCodeInput{Code: codes[0]})
	requireBusinessCode(t, err, goerror.CodeUnauthorized)

	// The rest of the set is unaffected.
	_, err = f.uc.VerifyRecoveryCode(ctx, VerifyRecoveryCodeInput{Code: codes[1]})
	require.NoError(t, err)
}

func TestVerifyRecoveryCode_NormalizesInput(t *testing.T) {
	f := newFixture(t)
	_, codes := f.enrollTOTP(t)

	sloppy := strings.ToLower(strings.ReplaceAll(codes[0], "-", ""))
	// The validator wants the XXXXX-XXXXX shape, hyphen optional.
	sloppy = sloppy[:5] + "-" + sloppy[5:]

	_, err := f.uc.VerifyRecoveryCode(f.authCtx(), VerifyRecoveryCodeInput{Code: sloppy})
	require.NoError(t, err)
}

func TestVerifyRecoveryCode_Unknown(t *testing.T) {
	f := newFixture(t)
	f.enrollTOTP(t)

	_, err := f.uc.VerifyRecoveryCode(f.authCtx(), VerifyRecoveryCodeInput{Code: "AAAAA-AAAAA"})
	requireBusinessCode(t, err, goerror.CodeUnauthorized)

	st, err := f.repo.GetSettings(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.FailedAttempts)
}

func TestRotateRecoveryCodes(t *testing.T) {
	f := newFixture(t)
	_, old := f.enrollTOTP(t)
	ctx := f.authCtx()

	out, err := f.uc.RotateRecoveryCodes(ctx)
	require.NoError(t, err)
	require.Len(t, out.RecoveryCodes, 8)
	assert.NotEqual(t, old, out.RecoveryCodes)

	// Rotation invalidates every earlier code.
	_, err = f.uc.VerifyRecoveryCode(ctx, VerifyRecoveryCodeInput{Code: old[0]})
	requireBusinessCode(t, err, goerror.CodeUnauthorized)

	_, err = f.uc.VerifyRecoveryCode(ctx, VerifyRecoveryCodeInput{Code: out.RecoveryCodes[0]})
	require.NoError(t, err)
}

func TestRotateRecoveryCodes_NotEnabled(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.RotateRecoveryCodes(f.authCtx())
	requireBusinessCode(t, err, goerror.CodeConflict)
}
