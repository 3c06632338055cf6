package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrQueueFull is returned by Submit when the task buffer is full.
	ErrQueueFull = errors.New("task queue is full")
	// ErrPoolStopped is returned when submitting to a stopped pool.
	ErrPoolStopped = errors.New("worker pool is stopped")
	// ErrTaskTimeout is reported when a task outlives TaskTimeout.
	ErrTaskTimeout = errors.New("task exceeded its time limit")
)

// Config represents pool configuration
type Config struct {
	Name        string        // label used in stats and logs
	MaxWorkers  int           // maximum number of workers
	QueueSize   int           // task queue size
	TaskTimeout time.Duration // timeout for single task, 0 disables
}

// Validate validates configuration
func (cfg *Config) Validate() error {
	if cfg.MaxWorkers < 1 {
		return errors.New("max workers must be greater than 0")
	}
	if cfg.QueueSize < 1 {
		return errors.New("queue size must be greater than 0")
	}
	if cfg.TaskTimeout < 0 {
		return errors.New("task timeout must be greater than or equal to 0")
	}
	return nil
}

// Task is one unit of work. ctx is cancelled when the pool stops or the task
// times out, with ErrTaskTimeout as cause in the latter case.
type Task func(ctx context.Context) error

// Snapshot is a point in time copy of the pool counters.
type Snapshot struct {
	Workers        int           `json:"workers"`
	Active         int64         `json:"active"`
	Pending        int64         `json:"pending"`
	Completed      int64         `json:"completed"`
	Failed         int64         `json:"failed"`
	TimedOut       int64         `json:"timed_out"`
	ProcessingTime time.Duration `json:"-"`
}

type counters struct {
	active         atomic.Int64
	pending        atomic.Int64
	completed      atomic.Int64
	failed         atomic.Int64
	timedOut       atomic.Int64
	processingTime atomic.Int64 // nanoseconds
}

// Pool represents a worker pool
type Pool struct {
	name        string
	maxWorkers  int
	taskTimeout time.Duration

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool

	stats counters
}

// NewPool creates a stopped pool from a validated cfg.
func NewPool(cfg *Config) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		name:        cfg.Name,
		maxWorkers:  cfg.MaxWorkers,
		taskTimeout: cfg.TaskTimeout,
		tasks:       make(chan Task, cfg.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Name returns the pool label.
func (p *Pool) Name() string {
	return p.name
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop stops accepting tasks, cancels running task contexts and waits for
// workers until ctx is done.
func (p *Pool) Stop(ctx context.Context) {
	p.cancel()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Submit enqueues a task without blocking.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		p.stats.pending.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	start := time.Now()
	p.stats.active.Add(1)
	p.stats.pending.Add(-1)

	defer func() {
		p.stats.active.Add(-1)
		p.stats.processingTime.Add(time.Since(start).Nanoseconds())
	}()

	taskCtx, cancel := p.taskContext()
	defer cancel()

	doneCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				doneCh <- fmt.Errorf("task panicked: %v", r)
			}
		}()
		doneCh <- task(taskCtx)
	}()

	var err error
	select {
	case err = <-doneCh:
	case <-taskCtx.Done():
		// The task goroutine is abandoned; it observes taskCtx.
		err = context.Cause(taskCtx)
	}

	switch {
	case err == nil:
		p.stats.completed.Add(1)
	case errors.Is(context.Cause(taskCtx), ErrTaskTimeout):
		p.stats.timedOut.Add(1)
		p.stats.failed.Add(1)
	default:
		p.stats.failed.Add(1)
	}
}

func (p *Pool) taskContext() (context.Context, context.CancelFunc) {
	if p.taskTimeout <= 0 {
		return context.WithCancel(p.ctx)
	}
	return context.WithTimeoutCause(p.ctx, p.taskTimeout, ErrTaskTimeout)
}

// Snapshot returns the current counters.
func (p *Pool) Snapshot() Snapshot {
	return Snapshot{
		Workers:        p.maxWorkers,
		Active:         p.stats.active.Load(),
		Pending:        p.stats.pending.Load(),
		Completed:      p.stats.completed.Load(),
		Failed:         p.stats.failed.Load(),
		TimedOut:       p.stats.timedOut.Load(),
		ProcessingTime: time.Duration(p.stats.processingTime.Load()),
	}
}

// Active returns the number of tasks being processed.
func (p *Pool) Active() int64 {
	return p.stats.active.Load()
}

// Pending returns the number of tasks buffered but not started.
func (p *Pool) Pending() int64 {
	return p.stats.pending.Load()
}
