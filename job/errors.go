package job

import "errors"

var (
	// ErrQueueUnavailable means a job could not be stored or enqueued.
	ErrQueueUnavailable = errors.New("job queue unavailable")
	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrUnknownKind is returned when no handler serves a kind.
	ErrUnknownKind = errors.New("unknown job kind")
	// ErrInvalidPayload is returned when a stored payload cannot be decoded.
	ErrInvalidPayload = errors.New("invalid job payload")
	// ErrRevoked is the cancellation cause of a revoked job.
	ErrRevoked = errors.New("job revoked")
	// ErrSoftTimeLimit is the cancellation cause once the soft limit passes.
	ErrSoftTimeLimit = errors.New("soft time limit exceeded")
	// ErrWorkerStopped is reported for jobs interrupted by shutdown.
	ErrWorkerStopped = errors.New("worker stopped before the job finished")
)
