package db

import (
	"context"
	"time"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

// ConfirmTOTP marks a pending setup confirmed. The unconfirmed condition
// makes the transition single-shot: of two racing confirmations exactly one
// sees a row affected, the other gets ErrConflict.
func (s *DB) ConfirmTOTP(ctx context.Context, userID, counter int64, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "ConfirmTOTP")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE twofactor_settings
		SET confirmed_at = $3, last_counter = $2, updated_at = $3
		WHERE user_id = $1 AND secret IS NOT NULL AND confirmed_at IS NULL`

	tag, err := s.conn.Exec(ctx, query, userID, counter, now)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrConflict
		return err
	}
	return nil
}

// ConfirmEmail records email delivery as the confirmed second factor for an
// account with no factor set up. The conflict condition leaves a pending or
// confirmed authenticator-app setup untouched.
func (s *DB) ConfirmEmail(ctx context.Context, userID int64, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConfirmEmail")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO twofactor_settings
			(user_id, method, confirmed_at, last_counter, failed_attempts, updated_at)
		VALUES ($1, $2, $3, 0, 0, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			method = EXCLUDED.method,
			confirmed_at = EXCLUDED.confirmed_at,
			updated_at = EXCLUDED.updated_at
		WHERE twofactor_settings.method = $4 AND twofactor_settings.confirmed_at IS NULL`

	tag, err := s.conn.Exec(ctx, query, userID, entity.MethodEmail, now, entity.MethodNone)
	if err != nil {
		return false, s.mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// AdvanceCounter persists a newly accepted TOTP counter. The condition
// makes the advance monotonic: a concurrent verification that already
// consumed this counter (or a later one) leaves zero rows affected.
func (s *DB) AdvanceCounter(ctx context.Context, userID, counter int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "AdvanceCounter")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE twofactor_settings
		SET last_counter = $2
		WHERE user_id = $1 AND last_counter < $2`

	tag, err := s.conn.Exec(ctx, query, userID, counter)
	if err != nil {
		return false, s.mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ConsumeChallenge is the single-use gate: the WHERE clause re-checks
// unconsumed and unexpired, so of two racing verifications exactly one
// sees a row affected.
func (s *DB) ConsumeChallenge(ctx context.Context, id int64, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallenge")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE twofactor_challenges
		SET consumed_at = $2
		WHERE id = $1 AND consumed_at IS NULL AND expires_at > $2`

	tag, err := s.conn.Exec(ctx, query, id, now)
	if err != nil {
		return false, s.mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *DB) ConsumeRecoveryCode(ctx context.Context, id int64, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeRecoveryCode")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE twofactor_recovery_codes
		SET used_at = $2
		WHERE id = $1 AND used_at IS NULL`

	tag, err := s.conn.Exec(ctx, query, id, now)
	if err != nil {
		return false, s.mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementFailedAttempts counts a verification failure atomically; racing
// failures each get their own incremented value back. A counter not touched
// since staleBefore restarts at one instead of accumulating forever.
func (s *DB) IncrementFailedAttempts(ctx context.Context, userID int64, now, staleBefore time.Time) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "IncrementFailedAttempts")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO twofactor_settings (user_id, method, failed_attempts, last_counter, updated_at)
		VALUES ($1, $2, 1, 0, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			failed_attempts = CASE
				WHEN twofactor_settings.updated_at < $4 THEN 1
				ELSE twofactor_settings.failed_attempts + 1
			END,
			updated_at = EXCLUDED.updated_at
		RETURNING failed_attempts`

	var attempts int
	if err = s.conn.QueryRow(ctx, query, userID, entity.MethodNone, now, staleBefore).Scan(&attempts); err != nil {
		return 0, s.mapError(err)
	}
	return attempts, nil
}

func (s *DB) LockAccount(ctx context.Context, userID int64, until time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "LockAccount")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE twofactor_settings
		SET locked_until = $2, failed_attempts = 0
		WHERE user_id = $1`

	_, err = s.conn.Exec(ctx, query, userID, until)
	return s.mapError(err)
}

func (s *DB) ResetLockout(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "ResetLockout")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE twofactor_settings
		SET failed_attempts = 0, locked_until = NULL
		WHERE user_id = $1`

	_, err = s.conn.Exec(ctx, query, userID)
	return s.mapError(err)
}

func (s *DB) DisableTwoFactor(ctx context.Context, userID int64, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "DisableTwoFactor")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return s.mapError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const clear = `
		UPDATE twofactor_settings
		SET method = $2, secret = NULL, confirmed_at = NULL, last_counter = 0,
		    failed_attempts = 0, locked_until = NULL, updated_at = $3
		WHERE user_id = $1`

	if _, err = tx.Exec(ctx, clear, userID, entity.MethodNone, now); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM twofactor_recovery_codes WHERE user_id = $1`, userID); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM twofactor_challenges WHERE user_id = $1`, userID); err != nil {
		return s.mapError(err)
	}

	err = s.mapError(tx.Commit(ctx))
	return err
}
