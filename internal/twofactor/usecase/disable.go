package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

// Disable turns two-factor authentication off: the method, secret,
// confirmation, counters, outstanding challenges, and every recovery code
// are discarded in one transaction.
func (s *Usecase) Disable(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Disable")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	st, err := s.repoDB.GetSettings(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Two-factor authentication is not enabled", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get twofactor settings", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.DisableTwoFactor(ctx, st.UserID, s.clock.Now()); err != nil {
		slog.ErrorContext(ctx, "failed to repo disable twofactor", "user_id", st.UserID, "error", err)
		return goerror.NewServer(err)
	}

	s.audit(ctx, st.UserID, entity.AuditTwoFactorDisabled, true, map[string]string{
		"method": st.Method.String(),
	})

	return nil
}
