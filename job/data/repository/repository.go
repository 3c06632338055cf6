// Package repository stores job records. Terminal records are immutable and
// expire after the configured result lifetime.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ncobase/weibo-agent/job/structs"
)

var (
	// ErrNotFound is returned for unknown or expired ids.
	ErrNotFound = errors.New("job not found")
	// ErrTerminal is returned when mutating a job that already ended.
	ErrTerminal = errors.New("job already ended")
	// ErrExists is returned when creating a job with a used id.
	ErrExists = errors.New("job already exists")
)

// Mutator changes a job in place. Returning an error aborts the update.
type Mutator func(j *structs.Job) error

// JobRepository is the canonical store of job records.
type JobRepository interface {
	Create(ctx context.Context, job *structs.Job) error
	Get(ctx context.Context, id string) (*structs.Job, error)
	// Update applies mutate atomically and returns the stored result. Jobs
	// in a terminal state are left untouched and ErrTerminal is returned.
	Update(ctx context.Context, id string, mutate Mutator) (*structs.Job, error)
	List(ctx context.Context) ([]*structs.Job, error)
	Stats(ctx context.Context) (map[structs.State]int, error)
	Close() error
}

// apply runs mutate on a copy of current and stamps UpdatedAt.
func apply(current *structs.Job, mutate Mutator) (*structs.Job, error) {
	if current.State.Terminal() {
		return nil, ErrTerminal
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now()
	return next, nil
}

// ttl is the lifetime of a record in state s; zero means no expiry.
func ttl(s structs.State, expires time.Duration) time.Duration {
	if s.Terminal() {
		return expires
	}
	return 0
}

func countStates(jobs []*structs.Job) map[structs.State]int {
	stats := map[structs.State]int{
		structs.StatePending:  0,
		structs.StateProgress: 0,
		structs.StateSuccess:  0,
		structs.StateFailure:  0,
		structs.StateRevoked:  0,
	}
	for _, j := range jobs {
		stats[j.State]++
	}
	return stats
}
