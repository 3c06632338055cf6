package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

// Keys double as log field names.
const (
	TraceIDKey = "trace_id"
	TaskIDKey  = "task_id"
)

func stringValue(ctx context.Context, key string) string {
	if v, ok := ctx.Value(ctxKey(key)).(string); ok {
		return v
	}
	return ""
}

// GetTraceID returns the trace id carried by ctx.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// SetTraceID returns ctx carrying traceID.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey(TraceIDKey), traceID)
}

// EnsureTraceID returns ctx with a trace id, generating one when missing.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if id := GetTraceID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return SetTraceID(ctx, id), id
}

// GetTaskID returns the id of the job being executed, if any.
func GetTaskID(ctx context.Context) string {
	return stringValue(ctx, TaskIDKey)
}

// SetTaskID marks the context as belonging to a job.
func SetTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey(TaskIDKey), id)
}
