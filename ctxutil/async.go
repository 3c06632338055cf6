package ctxutil

import (
	"context"
	"time"
)

// DefaultDetachTimeout bounds work done on a detached context.
const DefaultDetachTimeout = 5 * time.Second

// Detach returns a context keeping the values of parent but not its
// cancellation, bounded by timeout (DefaultDetachTimeout when zero). Job
// bookkeeping uses it to land writes after the request or job context ended.
func Detach(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultDetachTimeout
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
