package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

const (
	defaultLockoutThreshold = 5
	defaultLockoutMinutes   = 15 * time.Minute
	defaultFailureWindow    = 15 * time.Minute
)

// checkAllowed refuses verification attempts while the account is locked.
// A missing settings row means nothing has been counted yet.
func (s *Usecase) checkAllowed(ctx context.Context, st *entity.Settings) error {
	now := s.clock.Now()
	if !st.Locked(now) {
		return nil
	}

	slog.WarnContext(ctx, "verification refused, account locked",
		"user_id", st.UserID, "locked_until", st.LockedUntil)
	s.audit(ctx, st.UserID, entity.AuditVerificationLockedOut, false, nil)

	msg := fmt.Sprintf("Too many attempts, try again after %s",
		st.LockedUntil.UTC().Format(time.RFC3339))
	return goerror.NewBusiness(msg, goerror.CodeTooManyRequest)
}

// recordFailure counts a failed verification and, at the threshold, locks
// the account and resets the counter. The increment is atomic in storage
// so racing failures never under-count. Only failures inside the rolling
// window accumulate: a counter idle longer than the window restarts at one.
func (s *Usecase) recordFailure(ctx context.Context, userID int64) {
	now := s.clock.Now()

	window := s.cfg.GetMinute("modules.twofactor.failure_window_minutes")
	if window <= 0 {
		window = defaultFailureWindow
	}

	attempts, err := s.repoDB.IncrementFailedAttempts(ctx, userID, now, now.Add(-window))
	if err != nil {
		slog.ErrorContext(ctx, "failed to count verification failure", "user_id", userID, "error", err)
		return
	}

	threshold := s.cfg.GetInt("modules.twofactor.lockout_threshold")
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}
	if attempts < threshold {
		return
	}

	duration := s.cfg.GetMinute("modules.twofactor.lockout_minutes")
	if duration <= 0 {
		duration = defaultLockoutMinutes
	}

	until := now.Add(duration)
	if err := s.repoDB.LockAccount(ctx, userID, until); err != nil {
		slog.ErrorContext(ctx, "failed to lock account", "user_id", userID, "error", err)
		return
	}

	slog.WarnContext(ctx, "account locked after repeated verification failures",
		"user_id", userID, "attempts", attempts, "locked_until", until)
}

// recordSuccess clears the failure counter and any active lock.
func (s *Usecase) recordSuccess(ctx context.Context, userID int64) {
	if err := s.repoDB.ResetLockout(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "failed to reset lockout state", "user_id", userID, "error", err)
	}
}
