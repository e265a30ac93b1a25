package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvault/toolvault/internal/pkg/clock"
	"github.com/toolvault/toolvault/internal/pkg/config"
	"github.com/toolvault/toolvault/internal/pkg/instrument"
	"github.com/toolvault/toolvault/internal/pkg/mail"
	"github.com/toolvault/toolvault/internal/pkg/validator"
)

type fakeMail struct {
	mu       sync.Mutex
	sent     []mail.Message
	failures int
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures > 0 {
		f.failures--
		return errors.New("smtp: connection reset")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestUsecase(t *testing.T, m *fakeMail) (*Usecase, *clock.Fixed) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: ToolVault\n"))
	require.NoError(t, err)

	v10, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := &clock.Fixed{At: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}

	return NewNotification(Dependency{
		RepoMail:   m,
		Config:     cfg,
		Clock:      clk,
		Validator:  v10,
		Instrument: instrument.NewNoop(),
	}), clk
}

func TestConsumeChallengeIssued(t *testing.T) {
	m := &fakeMail{}
	uc, clk := newTestUsecase(t, m)

	err := uc.ConsumeChallengeIssued(context.Background(), ConsumeChallengeIssuedInput{
		UserID:      42,
		Email:       "pat@toolvault.dev",
		ChallengeID: 7,
		Code:        "483920",
		ExpiresAt:   clk.Now().Add(10 * time.Minute),
	})
	require.NoError(t, err)

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, []string{"pat@toolvault.dev"}, msg.To)
	assert.Equal(t, "ToolVault verification code", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "483920")
	assert.Contains(t, msg.HTMLBody, "10 minutes")
}

func TestConsumeChallengeIssued_RetriesTransientFailure(t *testing.T) {
	m := &fakeMail{failures: 2}
	uc, clk := newTestUsecase(t, m)

	err := uc.ConsumeChallengeIssued(context.Background(), ConsumeChallengeIssuedInput{
		UserID:      42,
		Email:       "pat@toolvault.dev",
		ChallengeID: 8,
		Code:        "111222",
		ExpiresAt:   clk.Now().Add(10 * time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, m.sent, 1)
}

func TestConsumeChallengeIssued_ExpiredCodeSkipped(t *testing.T) {
	m := &fakeMail{}
	uc, clk := newTestUsecase(t, m)

	err := uc.ConsumeChallengeIssued(context.Background(), ConsumeChallengeIssuedInput{
		UserID:      42,
		Email:       "pat@toolvault.dev",
		ChallengeID: 9,
		Code:        "999000",
		ExpiresAt:   clk.Now().Add(-time.Second),
	})
	require.NoError(t, err)
	assert.Empty(t, m.sent)
}

func TestConsumeChallengeIssued_InvalidPayloadDropped(t *testing.T) {
	m := &fakeMail{}
	uc, clk := newTestUsecase(t, m)

	err := uc.ConsumeChallengeIssued(context.Background(), ConsumeChallengeIssuedInput{
		UserID:      42,
		Email:       "not-an-email",
		ChallengeID: 10,
		Code:        "123456",
		ExpiresAt:   clk.Now().Add(10 * time.Minute),
	})
	require.NoError(t, err)
	assert.Empty(t, m.sent)
}
