package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{MaxWorkers: 1, QueueSize: 1}).Validate())
	assert.Error(t, (&Config{MaxWorkers: 0, QueueSize: 1}).Validate())
	assert.Error(t, (&Config{MaxWorkers: 1, QueueSize: 0}).Validate())
	assert.Error(t, (&Config{MaxWorkers: 1, QueueSize: 1, TaskTimeout: -1}).Validate())
}

func TestPoolProcessesTasks(t *testing.T) {
	var seen atomic.Int64
	p := NewPool(&Config{Name: "test", MaxWorkers: 2, QueueSize: 4})
	p.Start()
	defer p.Stop(context.Background())

	for i := 1; i <= 3; i++ {
		n := int64(i)
		require.NoError(t, p.Submit(func(context.Context) error {
			seen.Add(n)
			return nil
		}))
	}

	waitFor(t, func() bool { return p.Snapshot().Completed == 3 })
	assert.Equal(t, int64(6), seen.Load())
	assert.Equal(t, "test", p.Name())
	assert.Equal(t, 2, p.Snapshot().Workers)
}

func TestPoolSubmitWhenFull(t *testing.T) {
	release := make(chan struct{})
	block := func(context.Context) error {
		<-release
		return nil
	}
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 1})
	p.Start()
	defer p.Stop(context.Background())
	defer close(release)

	require.NoError(t, p.Submit(block))
	waitFor(t, func() bool { return p.Active() == 1 })

	require.NoError(t, p.Submit(block))
	assert.Equal(t, int64(1), p.Pending())

	assert.ErrorIs(t, p.Submit(block), ErrQueueFull)
}

func TestPoolCountsFailuresAndPanics(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 2})
	p.Start()
	defer p.Stop(context.Background())

	require.NoError(t, p.Submit(func(context.Context) error { return errors.New("failed") }))
	require.NoError(t, p.Submit(func(context.Context) error { panic("boom") }))

	waitFor(t, func() bool { return p.Snapshot().Failed == 2 })
	waitFor(t, func() bool { return p.Active() == 0 })
	assert.Zero(t, p.Snapshot().Completed)
}

func TestPoolTaskTimeout(t *testing.T) {
	observed := make(chan error, 1)
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 1, TaskTimeout: 20 * time.Millisecond})
	p.Start()
	defer p.Stop(context.Background())

	require.NoError(t, p.Submit(func(ctx context.Context) error {
		<-ctx.Done()
		observed <- context.Cause(ctx)
		return ctx.Err()
	}))

	select {
	case err := <-observed:
		assert.ErrorIs(t, err, ErrTaskTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("task never observed the timeout")
	}
	waitFor(t, func() bool { return p.Snapshot().TimedOut == 1 })
}

func TestStopRejectsSubmissions(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 1})
	p.Start()
	p.Stop(context.Background())
	p.Stop(context.Background())

	assert.ErrorIs(t, p.Submit(func(context.Context) error { return nil }), ErrPoolStopped)
}
