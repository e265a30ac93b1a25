package db

import (
	"context"

	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

func (s *DB) GetAccount(ctx context.Context, userID int64) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccount")
	defer func() { s.endSpan(span, err) }()

	const query = `SELECT id, email FROM users WHERE id = $1 AND deleted_at IS NULL`

	var account entity.Account
	err = s.conn.QueryRow(ctx, query, userID).Scan(&account.ID, &account.Email)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &account, nil
}

func (s *DB) GetSettings(ctx context.Context, userID int64) (_ *entity.Settings, err error) {
	ctx, span := s.startSpan(ctx, "GetSettings")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT user_id, method, secret, confirmed_at, last_counter,
		       failed_attempts, locked_until, updated_at
		FROM twofactor_settings
		WHERE user_id = $1`

	var st entity.Settings
	err = s.conn.QueryRow(ctx, query, userID).Scan(
		&st.UserID, &st.Method, &st.Secret, &st.ConfirmedAt, &st.LastCounter,
		&st.FailedAttempts, &st.LockedUntil, &st.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &st, nil
}

func (s *DB) GetChallenge(ctx context.Context, id, userID int64) (_ *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "GetChallenge")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, user_id, code_hash, channel, created_at, expires_at, consumed_at
		FROM twofactor_challenges
		WHERE id = $1 AND user_id = $2`

	var ch entity.Challenge
	err = s.conn.QueryRow(ctx, query, id, userID).Scan(
		&ch.ID, &ch.UserID, &ch.CodeHash, &ch.Channel,
		&ch.CreatedAt, &ch.ExpiresAt, &ch.ConsumedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &ch, nil
}

func (s *DB) GetUnusedRecoveryCodes(ctx context.Context, userID int64) (_ []entity.RecoveryCode, err error) {
	ctx, span := s.startSpan(ctx, "GetUnusedRecoveryCodes")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, user_id, code_hash, created_at, used_at
		FROM twofactor_recovery_codes
		WHERE user_id = $1 AND used_at IS NULL
		ORDER BY id`

	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var out []entity.RecoveryCode
	for rows.Next() {
		var rc entity.RecoveryCode
		if err = rows.Scan(&rc.ID, &rc.UserID, &rc.CodeHash, &rc.CreatedAt, &rc.UsedAt); err != nil {
			return nil, s.mapError(err)
		}
		out = append(out, rc)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return out, nil
}

func (s *DB) CountUnusedRecoveryCodes(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountUnusedRecoveryCodes")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT COUNT(*)
		FROM twofactor_recovery_codes
		WHERE user_id = $1 AND used_at IS NULL`

	var count int64
	if err = s.conn.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, s.mapError(err)
	}
	return count, nil
}
