package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/weibo-agent/concurrency/worker"
	"github.com/ncobase/weibo-agent/ctxutil"
	"github.com/ncobase/weibo-agent/job/data/repository"
	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type outcome struct {
	value any
	err   error
}

// execute runs one dequeued job. ctx is the worker task context; it ends at
// the hard time limit or on shutdown, and execute then returns even if the
// handler ignores cancellation.
func (m *Manager) execute(ctx context.Context, l *lane, id string) error {
	store := context.WithoutCancel(ctx)

	job, err := m.repo.Get(store, id)
	if err != nil {
		logger.Warn(store, "dequeued job is gone", "job_id", id, "error", err)
		return err
	}
	store = ctxutil.SetTaskID(ctxutil.SetTraceID(store, job.TraceID), id)

	if job.State.Terminal() {
		logger.Info(store, "skipping finished job", "job_id", id, "state", job.State)
		return nil
	}

	handler, ok := m.handlers[job.Kind]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownKind, job.Kind)
		m.fail(store, id, err)
		return err
	}

	started := time.Now()
	job, err = m.repo.Update(store, id, func(j *structs.Job) error {
		j.State = structs.StateProgress
		j.StartedAt = &started
		j.Progress = structs.Progress{Message: MsgRunning}
		return nil
	})
	if errors.Is(err, repository.ErrTerminal) {
		return nil
	}
	if err != nil {
		logger.Error(store, "failed to start job", "job_id", id, "error", err)
		return err
	}

	jobCtx, cancel := context.WithCancelCause(ctxutil.SetTaskID(ctxutil.SetTraceID(ctx, job.TraceID), id))
	defer cancel(nil)
	m.track(id, cancel)
	defer m.untrack(id)

	jobCtx, span := m.tracer.Start(jobCtx, "job."+string(job.Kind), trace.WithAttributes(
		attribute.String("job.id", id),
		attribute.String("job.kind", string(job.Kind)),
		attribute.String("job.lane", string(l.name)),
	))
	defer span.End()

	metrics.JobStarted(string(l.name))
	logger.Info(store, "job started", "job_id", id, "kind", job.Kind, "lane", l.name)

	rep := m.startReporter(store, id)
	stopWatch := m.watchRevocation(jobCtx, id, cancel)

	softCtx, softCancel := context.WithTimeoutCause(jobCtx, m.cfg.SoftTimeLimit, ErrSoftTimeLimit)
	defer softCancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("job panicked: %v", r)}
			}
		}()
		v, err := handler(softCtx, job, rep.events)
		done <- outcome{value: v, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		cause := context.Cause(ctx)
		if errors.Is(cause, worker.ErrTaskTimeout) {
			out.err = fmt.Errorf("time limit exceeded (%s)", m.cfg.HardTimeLimit)
		} else {
			out.err = ErrWorkerStopped
		}
		cancel(out.err)
	}

	stopWatch()
	rep.stop()

	if errors.Is(context.Cause(jobCtx), ErrRevoked) {
		out.err = ErrRevoked
	}

	state := m.finish(store, id, out)
	metrics.JobFinished(string(job.Kind), string(l.name), string(state), time.Since(started))

	if out.err != nil {
		span.RecordError(out.err)
		span.SetStatus(codes.Error, out.err.Error())
	}
	logger.Info(store, "job finished", "job_id", id, "state", state, "elapsed", time.Since(started).String())
	return out.err
}

// finish stores the terminal state of a job and returns the state it ended
// in, which is REVOKED when a revocation won the race.
func (m *Manager) finish(ctx context.Context, id string, out outcome) structs.State {
	now := time.Now()
	var mutate repository.Mutator

	var partial json.RawMessage
	if out.err != nil && out.value != nil {
		var err error
		if partial, err = json.Marshal(out.value); err != nil {
			logger.Warn(ctx, "failed to encode partial result", "job_id", id, "error", err)
		}
		// Typed nil pointers returned next to an error encode as null.
		if string(partial) == "null" {
			partial = nil
		}
	}

	switch {
	case out.err == nil:
		result, err := json.Marshal(out.value)
		if err != nil {
			return m.finish(ctx, id, outcome{err: fmt.Errorf("failed to encode result: %w", err)})
		}
		mutate = func(j *structs.Job) error {
			hundred := 100
			j.State = structs.StateSuccess
			j.Result = result
			j.Progress.Percent = &hundred
			j.EndedAt = &now
			return nil
		}
	case errors.Is(out.err, ErrRevoked):
		mutate = func(j *structs.Job) error {
			j.State = structs.StateRevoked
			j.Result = partial
			j.EndedAt = &now
			return nil
		}
	default:
		mutate = func(j *structs.Job) error {
			j.State = structs.StateFailure
			j.Error = out.err.Error()
			j.Result = partial
			j.EndedAt = &now
			return nil
		}
		logger.Warn(ctx, "job failed", "job_id", id, "error", out.err)
	}

	j, err := m.repo.Update(ctx, id, mutate)
	if err == nil {
		return j.State
	}
	if errors.Is(err, repository.ErrTerminal) {
		if current, gerr := m.repo.Get(ctx, id); gerr == nil {
			return current.State
		}
		return structs.StateRevoked
	}
	logger.Error(ctx, "failed to store job outcome", "job_id", id, "error", err)
	return structs.StateFailure
}

// watchRevocation polls the repository and cancels the job once another
// process revoked it. The returned function stops the watcher.
func (m *Manager) watchRevocation(ctx context.Context, id string, cancel context.CancelCauseFunc) func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		t := time.NewTicker(m.cfg.RevokePollInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				j, err := m.repo.Get(ctx, id)
				if err == nil && j.State == structs.StateRevoked {
					logger.Info(ctx, "revocation observed", "job_id", id)
					cancel(ErrRevoked)
					return
				}
			}
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}
