package concurrency

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrOverRelease is returned when Release is called without a held slot.
var ErrOverRelease = errors.New("release called more times than acquire")

// Manager is a counting semaphore. The job runtime uses one per lane to gate
// how many jobs are pulled from the broker, and one of capacity 1 per account
// identity to serialize jobs sharing a session within a process.
type Manager struct {
	maxConcurrent int32
	current       atomic.Int32
	semaphore     chan struct{}
}

// NewManager creates a manager allowing up to max concurrent holders.
//
// Usage:
//
//	lock, _ := concurrency.NewManager(1)
//	if err := lock.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer lock.Release()
func NewManager(max int32) (*Manager, error) {
	if max <= 0 {
		return nil, fmt.Errorf("max concurrent must be positive, got: %d", max)
	}

	return &Manager{
		maxConcurrent: max,
		semaphore:     make(chan struct{}, max),
	}, nil
}

// Acquire blocks until a slot is free or ctx is done.
func (m *Manager) Acquire(ctx context.Context) error {
	select {
	case m.semaphore <- struct{}{}:
		m.current.Add(1)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to acquire concurrency slot: %w", context.Cause(ctx))
	}
}

// Release releases a concurrency slot
func (m *Manager) Release() error {
	select {
	case <-m.semaphore:
		m.current.Add(-1)
		return nil
	default:
		return ErrOverRelease
	}
}

// InUse returns the number of held slots.
func (m *Manager) InUse() int32 {
	return m.current.Load()
}

// Available returns the number of available slots
func (m *Manager) Available() int32 {
	return m.maxConcurrent - m.current.Load()
}
