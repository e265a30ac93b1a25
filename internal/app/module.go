package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/toolvault/toolvault/internal/notification"
	"github.com/toolvault/toolvault/internal/twofactor"
	"github.com/toolvault/toolvault/internal/twofactor/usecase"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.twofactor.enabled") {
		uc, err := twofactor.New(twofactor.Dependency{
			DBConn:      a.dbConn,
			Router:      a.router,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			HMAC:        a.hmac,
			Argon2id:    a.argon2id,
			Secrets:     a.secrets,
			Recovery:    a.recovery,
			Totp:        a.totp,
			Clock:       a.clock,
			Validator:   a.validator,
			JWT:         a.jwt,
		})
		if err != nil {
			slog.Error("failed to init module twofactor", "error", err)
			os.Exit(1)
		}

		a.startChallengeSweeper(uc)
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}

// startChallengeSweeper periodically removes consumed and expired email
// challenges so the table does not grow unbounded.
func (a *App) startChallengeSweeper(uc *usecase.Usecase) {
	interval := a.config.GetMinute("modules.twofactor.sweep_interval_minutes")
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	a.goroutine.Go(a.ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := uc.SweepChallenges(ctx); err != nil {
					slog.ErrorContext(ctx, "challenge sweep failed", "error", err)
				}
			}
		}
	})
}
