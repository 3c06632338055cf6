// Package retry runs unreliable operations with bounded exponential backoff.
//
// An operation is attempted up to MaxAttempts times. After the attempt with
// zero-based index i fails, Do waits BaseDelay * 2^i before the next one.
// There is no jitter. Errors wrapped with Permanent are returned at once,
// and cancellation of ctx stops the loop without another attempt.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults used when no option overrides them.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Outcome is the result of Do. Err is nil on success. Attempts counts the
// attempts actually started.
type Outcome[T any] struct {
	Value    T
	Err      error
	Attempts int
}

// OK reports whether the operation eventually succeeded.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

type options struct {
	maxAttempts int
	baseDelay   time.Duration
	onAttempt   func(attempt, max int)
	onRetry     func(err error, wait time.Duration)
}

// Option configures Do.
type Option func(*options)

// WithMaxAttempts sets the attempt budget. Values below 1 are treated as 1.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.maxAttempts = n
	}
}

// WithBaseDelay sets the delay before the second attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}
		o.baseDelay = d
	}
}

// WithNotify registers a callback invoked before every attempt with the
// one-based attempt number and the budget.
func WithNotify(fn func(attempt, max int)) Option {
	return func(o *options) {
		o.onAttempt = fn
	}
}

// WithOnRetry registers a callback invoked after a failed attempt when
// another one is scheduled.
func WithOnRetry(fn func(err error, wait time.Duration)) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// Permanent marks err as definitive; Do returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Schedule returns the waits Do performs between attempts.
func Schedule(maxAttempts int, base time.Duration) []time.Duration {
	if maxAttempts < 2 {
		return nil
	}
	waits := make([]time.Duration, 0, maxAttempts-1)
	for i := 0; i < maxAttempts-1; i++ {
		waits = append(waits, base*time.Duration(1<<i))
	}
	return waits
}

func newBackOff(ctx context.Context, o *options) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.maxAttempts-1)), ctx)
}

// Do runs op until it succeeds, fails permanently, exhausts the budget or
// ctx is cancelled.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts ...Option) Outcome[T] {
	o := &options{maxAttempts: DefaultMaxAttempts, baseDelay: DefaultBaseDelay}
	for _, opt := range opts {
		opt(o)
	}

	var out Outcome[T]
	var lastErr error

	attempt := func() (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, backoff.Permanent(context.Cause(ctx))
		}
		out.Attempts++
		if o.onAttempt != nil {
			o.onAttempt(out.Attempts, o.maxAttempts)
		}
		v, err := op(ctx)
		if err != nil {
			lastErr = err
		}
		return v, err
	}

	notify := func(err error, wait time.Duration) {
		if o.onRetry != nil {
			o.onRetry(err, wait)
		}
	}

	v, err := backoff.RetryNotifyWithData(attempt, newBackOff(ctx, o), notify)
	out.Value = v
	out.Err = err
	if err != nil && lastErr != nil && ctx.Err() != nil && !errors.Is(lastErr, ctx.Err()) {
		// Cancelled between attempts: keep both the cause and the last failure.
		out.Err = errors.Join(err, lastErr)
	}
	return out
}
