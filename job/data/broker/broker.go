// Package broker moves job ids from submitters to lane dispatchers.
package broker

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned once the broker has been closed.
	ErrClosed = errors.New("broker is closed")
	// ErrFull is returned when a bounded lane cannot take more ids.
	ErrFull = errors.New("lane is full")
)

// Broker is a set of FIFO lanes carrying job ids.
type Broker interface {
	Publish(ctx context.Context, lane, id string) error
	// Receive blocks until an id is available on lane or ctx is done.
	Receive(ctx context.Context, lane string) (string, error)
	// Len returns the number of ids waiting on lane.
	Len(ctx context.Context, lane string) (int64, error)
	Close() error
}
