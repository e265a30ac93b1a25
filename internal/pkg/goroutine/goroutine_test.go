package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RunsTasksAndCollectsErrors(t *testing.T) {
	m := NewManager(8)

	var ran atomic.Int32
	for i := 0; i < 4; i++ {
		m.Go(context.Background(), func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	m.Go(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})

	err := m.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.GreaterOrEqual(t, ran.Load(), int32(3))
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(1)

	m.Go(context.Background(), func(ctx context.Context) error {
		panic("exploded")
	})

	assert.NoError(t, m.Wait())
}

func TestManager_ClosedAfterWait(t *testing.T) {
	m := NewManager(1)
	require.NoError(t, m.Wait())

	var ran atomic.Bool
	m.Go(context.Background(), func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestManager_NilSafe(t *testing.T) {
	var m *Manager
	m.Go(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, m.Wait())
}
