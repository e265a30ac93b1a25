package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/pkg/recovery"
	"github.com/toolvault/toolvault/internal/twofactor/entity"
)

type RotateRecoveryCodesOutput struct {
	RecoveryCodes []string
}

// RotateRecoveryCodes replaces the whole recovery code set on demand.
// Every previously issued code stops working.
func (s *Usecase) RotateRecoveryCodes(ctx context.Context) (*RotateRecoveryCodesOutput, error) {
	ctx, span := s.startSpan(ctx, "RotateRecoveryCodes")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.repoDB.GetSettings(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) || (err == nil && !st.Confirmed()) {
		return nil, goerror.NewBusiness("Two-factor authentication is not enabled", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get twofactor settings", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codes, err := s.issueRecoverySet(ctx, st.UserID)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, st.UserID, entity.AuditRecoveryCodesRotated, true, nil)

	return &RotateRecoveryCodesOutput{RecoveryCodes: codes}, nil
}

// issueRecoverySet generates a fresh set, stores only argon2id hashes, and
// atomically discards every previous entry. Plaintext is returned exactly
// once and never logged.
func (s *Usecase) issueRecoverySet(ctx context.Context, userID int64) ([]string, error) {
	plaintexts, err := s.recovery.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate recovery codes", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	rows := make([]entity.RecoveryCode, 0, len(plaintexts))
	for _, code := range plaintexts {
		// Hash the normalized form so sloppy re-entry (lowercase, missing
		// hyphen) still matches at consumption time.
		hashed, err := s.argon2id.Hash(recovery.Normalize(code))
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash recovery code", "user_id", userID, "error", err)
			return nil, goerror.NewServer(err)
		}

		rows = append(rows, entity.RecoveryCode{
			ID:        s.uid.Generate(),
			UserID:    userID,
			CodeHash:  string(hashed),
			CreatedAt: now,
		})
	}

	if err := s.repoDB.ReplaceRecoveryCodes(ctx, userID, rows); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace recovery codes", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return plaintexts, nil
}
