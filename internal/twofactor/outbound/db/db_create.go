package db

import (
	"context"
	"time"

	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

func (s *DB) SavePendingTOTP(ctx context.Context, userID int64, secret []byte, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "SavePendingTOTP")
	defer func() { s.endSpan(span, err) }()

	// Re-enabling before confirmation replaces the pending secret and
	// resets the counter; lockout state is kept.
	const query = `
		INSERT INTO twofactor_settings
			(user_id, method, secret, confirmed_at, last_counter, failed_attempts, updated_at)
		VALUES ($1, $2, $3, NULL, 0, 0, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			method = EXCLUDED.method,
			secret = EXCLUDED.secret,
			confirmed_at = NULL,
			last_counter = 0,
			updated_at = EXCLUDED.updated_at`

	_, err = s.conn.Exec(ctx, query, userID, entity.MethodTOTP, secret, now)
	return s.mapError(err)
}

func (s *DB) CreateChallenge(ctx context.Context, in entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "CreateChallenge")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO twofactor_challenges
			(id, user_id, code_hash, channel, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = s.conn.Exec(ctx, query,
		in.ID, in.UserID, in.CodeHash, in.Channel, in.CreatedAt, in.ExpiresAt)
	return s.mapError(err)
}

func (s *DB) ReplaceRecoveryCodes(ctx context.Context, userID int64, codes []entity.RecoveryCode) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceRecoveryCodes")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return s.mapError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `DELETE FROM twofactor_recovery_codes WHERE user_id = $1`, userID); err != nil {
		return s.mapError(err)
	}

	const insert = `
		INSERT INTO twofactor_recovery_codes (id, user_id, code_hash, created_at)
		VALUES ($1, $2, $3, $4)`

	for _, code := range codes {
		if _, err = tx.Exec(ctx, insert, code.ID, code.UserID, code.CodeHash, code.CreatedAt); err != nil {
			return s.mapError(err)
		}
	}

	err = s.mapError(tx.Commit(ctx))
	return err
}
