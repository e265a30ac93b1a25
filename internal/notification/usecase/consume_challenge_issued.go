package usecase

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/toolvault/toolvault/internal/pkg/mail"
)

//nolint:gochecknoglobals // parsed once, read-only afterwards
var challengeEmailTemplate = template.Must(template.New("twofactor_code").Parse(`
<p>Hi,</p>
<p>Your {{.AppName}} verification code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px;">{{.Code}}</p>
<p>The code expires in {{.ExpiresIn}} minutes. If you did not request it, you can ignore this email.</p>
`))

type ConsumeChallengeIssuedInput struct {
	UserID      int64  `validate:"required,gt=0"`
	Email       string `validate:"required,email"`
	ChallengeID int64  `validate:"required,gt=0"`
	Code        string `validate:"required"`
	ExpiresAt   time.Time
}

// ConsumeChallengeIssued emails the one-time code for a freshly issued
// challenge. Send failures are retried with a capped backoff; the final
// error propagates so the broker can redeliver.
func (s *Usecase) ConsumeChallengeIssued(ctx context.Context, in ConsumeChallengeIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeChallengeIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	expiresIn := int(in.ExpiresAt.Sub(s.clock.Now()).Round(time.Minute) / time.Minute)
	if expiresIn < 1 {
		slog.WarnContext(ctx, "challenge already expired, skipping email",
			"user_id", in.UserID, "challenge_id", in.ChallengeID)
		return nil
	}

	var body bytes.Buffer
	err := challengeEmailTemplate.Execute(&body, map[string]any{
		"AppName":   s.cfg.GetString("app.name"),
		"Code":      in.Code,
		"ExpiresIn": expiresIn,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render challenge email body",
			"user_id", in.UserID, "challenge_id", in.ChallengeID, "error", err)
		return nil
	}

	msg := mail.Message{
		To:       []string{in.Email},
		Subject:  fmt.Sprintf("%s verification code", s.cfg.GetString("app.name")),
		HTMLBody: body.String(),
	}

	b := retry.NewFibonacci(500 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(3, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.repoMail.Send(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send challenge email",
			"user_id", in.UserID, "challenge_id", in.ChallengeID, "error", err)
		return err
	}

	return nil
}
