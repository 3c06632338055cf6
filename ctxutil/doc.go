// Package ctxutil carries the trace id and the task id through
// context.Context so that log lines written by HTTP handlers and by
// background workers can be correlated.
package ctxutil
