// Package job runs submitted work in background lanes and tracks its state.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/ctxutil"
	"github.com/ncobase/weibo-agent/job/data"
	"github.com/ncobase/weibo-agent/job/data/broker"
	"github.com/ncobase/weibo-agent/job/data/repository"
	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/metrics"
	"github.com/ncobase/weibo-agent/weibo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ncobase/weibo-agent/job"

// Handler performs one job. Progress is reported on events; the returned
// value becomes the JSON result of the job. A value returned together with an
// error is kept as the partial result of the failed job.
type Handler func(ctx context.Context, job *structs.Job, events chan<- weibo.Event) (any, error)

// Manager submits jobs and, once started, executes them.
type Manager struct {
	cfg      *config.Queue
	repo     repository.JobRepository
	broker   broker.Broker
	tracer   trace.Tracer
	handlers map[structs.Kind]Handler

	mu      sync.Mutex
	running map[string]context.CancelCauseFunc
	lanes   map[structs.Lane]*lane

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager on top of the data layer.
func NewManager(cfg *config.Queue, d *data.Data) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		repo:     d.Repository(),
		broker:   d.Broker(),
		tracer:   otel.Tracer(tracerName),
		handlers: make(map[structs.Kind]Handler),
		running:  make(map[string]context.CancelCauseFunc),
		lanes:    make(map[structs.Lane]*lane),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler sets the handler of kind.
func (m *Manager) RegisterHandler(kind structs.Kind, h Handler) {
	m.handlers[kind] = h
}

// Submit stores a PENDING job and publishes it on its lane. Storage or
// publish failures are reported as ErrQueueUnavailable.
func (m *Manager) Submit(ctx context.Context, kind structs.Kind, payload any) (*structs.Job, error) {
	if _, ok := m.handlers[kind]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	now := time.Now()
	job := &structs.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Lane:      structs.LaneOf(kind),
		State:     structs.StatePending,
		Payload:   body,
		TraceID:   ctxutil.GetTraceID(ctx),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.repo.Create(ctx, job); err != nil {
		logger.Error(ctx, "failed to store job", "kind", kind, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}

	if err := m.broker.Publish(ctx, string(job.Lane), job.ID); err != nil {
		logger.Error(ctx, "failed to publish job", "job_id", job.ID, "lane", job.Lane, "error", err)
		fctx, cancel := ctxutil.Detach(ctx, 0)
		m.fail(fctx, job.ID, fmt.Errorf("failed to enqueue job: %w", err))
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}

	metrics.JobSubmitted(string(kind))
	logger.Info(ctx, "job submitted", "job_id", job.ID, "kind", kind, "lane", job.Lane)
	return job, nil
}

// Get returns the stored job.
func (m *Manager) Get(ctx context.Context, id string) (*structs.Job, error) {
	j, err := m.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return j, err
}

// List returns every stored job, newest first.
func (m *Manager) List(ctx context.Context) ([]*structs.Job, error) {
	return m.repo.List(ctx)
}

// Cancel revokes a job. It is idempotent: unknown and already finished jobs
// are acknowledged without change. A job running in this process is
// interrupted at once; other processes notice through the repository.
func (m *Manager) Cancel(ctx context.Context, id string) error {
	now := time.Now()
	_, err := m.repo.Update(ctx, id, func(j *structs.Job) error {
		j.State = structs.StateRevoked
		j.EndedAt = &now
		return nil
	})
	switch {
	case err == nil:
		logger.Info(ctx, "job revoked", "job_id", id)
	case errors.Is(err, repository.ErrTerminal), errors.Is(err, repository.ErrNotFound):
		logger.Debug(ctx, "revoke acknowledged without change", "job_id", id, "reason", err)
	default:
		return fmt.Errorf("failed to revoke job: %w", err)
	}

	m.mu.Lock()
	cancel := m.running[id]
	m.mu.Unlock()
	if cancel != nil {
		cancel(ErrRevoked)
	}
	return nil
}

// Stats counts running jobs and jobs waiting in lanes.
func (m *Manager) Stats(ctx context.Context) (*structs.Stats, error) {
	states, err := m.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	s := &structs.Stats{ActiveTasks: int64(states[structs.StateProgress])}
	for _, name := range structs.Lanes {
		n, err := m.broker.Len(ctx, string(name))
		if err != nil {
			return nil, err
		}
		s.ReservedTasks += n
	}

	m.mu.Lock()
	for name, l := range m.lanes {
		snap := l.pool.Snapshot()
		s.ReservedTasks += snap.Pending
		if s.Lanes == nil {
			s.Lanes = make(map[structs.Lane]structs.LaneStats, len(m.lanes))
		}
		s.Lanes[name] = structs.LaneStats{
			Workers:     snap.Workers,
			Active:      snap.Active,
			Prefetched:  l.slots.InUse(),
			Completed:   snap.Completed,
			Failed:      snap.Failed,
			TimedOut:    snap.TimedOut,
			BusySeconds: snap.ProcessingTime.Seconds(),
		}
	}
	m.mu.Unlock()

	s.TotalPending = s.ActiveTasks + s.ReservedTasks
	return s, nil
}

func (m *Manager) track(id string, cancel context.CancelCauseFunc) {
	m.mu.Lock()
	m.running[id] = cancel
	m.mu.Unlock()
}

func (m *Manager) untrack(id string) {
	m.mu.Lock()
	delete(m.running, id)
	m.mu.Unlock()
}

// fail marks a job FAILURE unless it already ended.
func (m *Manager) fail(ctx context.Context, id string, cause error) {
	now := time.Now()
	_, err := m.repo.Update(ctx, id, func(j *structs.Job) error {
		j.State = structs.StateFailure
		j.Error = cause.Error()
		j.EndedAt = &now
		return nil
	})
	if err != nil && !errors.Is(err, repository.ErrTerminal) {
		logger.Error(ctx, "failed to mark job failed", "job_id", id, "error", err)
	}
}
