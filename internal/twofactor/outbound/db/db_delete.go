package db

import (
	"context"
	"time"
)

// DeleteFinishedChallenges removes consumed or expired challenge rows.
// Cleanup only; expiry is enforced by timestamp comparison at verify time.
func (s *DB) DeleteFinishedChallenges(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteFinishedChallenges")
	defer func() { s.endSpan(span, err) }()

	const query = `
		DELETE FROM twofactor_challenges
		WHERE consumed_at IS NOT NULL OR expires_at <= $1`

	tag, err := s.conn.Exec(ctx, query, now)
	if err != nil {
		return 0, s.mapError(err)
	}
	return tag.RowsAffected(), nil
}
