package usecase

import (
	"context"
	"log/slog"
)

// SweepChallenges deletes consumed or expired challenge rows. Pure cleanup;
// expiry itself is enforced by timestamp comparison, not by this sweep.
func (s *Usecase) SweepChallenges(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "SweepChallenges")
	defer span.End()

	deleted, err := s.repoDB.DeleteFinishedChallenges(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete finished challenges", "error", err)
		return err
	}

	if deleted > 0 {
		slog.InfoContext(ctx, "swept finished challenges", "deleted", deleted)
	}
	return nil
}
