package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/toolvault/toolvault/internal/notification/usecase"
	"github.com/toolvault/toolvault/internal/pkg/instrument"
	"github.com/toolvault/toolvault/internal/pkg/messaging"
	"github.com/toolvault/toolvault/internal/pkg/uid"
	"github.com/toolvault/toolvault/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) ChallengeIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "ChallengeIssuedNotification")
	defer span.End()

	// The payload carries the plaintext one-time code; never log the body.
	slog.InfoContext(ctx, "consume: two-factor challenge issued", "msg_id", msg.ID())

	var payload event.TwoFactorChallengeMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of two-factor challenge", "msg_id", msg.ID(), "error", err)
		return nil
	}

	if err := h.uc.ConsumeChallengeIssued(ctx, usecase.ConsumeChallengeIssuedInput{
		UserID:      payload.UserID,
		Email:       payload.Email,
		ChallengeID: payload.ChallengeID,
		Code:        payload.Code,
		ExpiresAt:   payload.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume two-factor challenge", "msg_id", msg.ID(), "error", err)
		return err
	}

	return nil
}
