package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/weibo-agent/concurrency"
	"github.com/ncobase/weibo-agent/concurrency/worker"
	"github.com/ncobase/weibo-agent/ctxutil"
	"github.com/ncobase/weibo-agent/job/data/broker"
	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/logging/logger"
)

const receiveBackoff = time.Second

// lane is a worker pool fed by one broker lane. slots bounds how many ids
// are taken from the broker, so every worker prefetches a single job.
type lane struct {
	name  structs.Lane
	pool  *worker.Pool
	slots *concurrency.Manager
}

func (m *Manager) workersFor(name structs.Lane) int {
	if name == structs.LaneDeletion {
		return m.cfg.DeletionWorkers
	}
	return m.cfg.AnalysisWorkers
}

// Start runs a dispatcher and a worker pool for each lane given, or for
// every lane when none is.
func (m *Manager) Start(names ...structs.Lane) error {
	if len(names) == 0 {
		names = structs.Lanes
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range names {
		if _, ok := m.lanes[name]; ok {
			continue
		}
		n := m.workersFor(name)
		slots, err := concurrency.NewManager(int32(n))
		if err != nil {
			return fmt.Errorf("lane %s: %w", name, err)
		}
		cfg := &worker.Config{
			Name:        string(name),
			MaxWorkers:  n,
			QueueSize:   n,
			TaskTimeout: m.cfg.HardTimeLimit,
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("lane %s: %w", name, err)
		}

		l := &lane{name: name, pool: worker.NewPool(cfg), slots: slots}
		l.pool.Start()
		m.lanes[name] = l

		m.wg.Add(1)
		go m.dispatch(l)
		logger.Info(m.ctx, "lane started", "lane", name, "workers", n)
	}
	return nil
}

// Stop halts the dispatchers, interrupts running jobs and waits for the
// pools until ctx is done.
func (m *Manager) Stop(ctx context.Context) {
	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	lanes := make([]*lane, 0, len(m.lanes))
	for _, l := range m.lanes {
		lanes = append(lanes, l)
	}
	m.mu.Unlock()

	for _, l := range lanes {
		l.pool.Stop(ctx)
	}
}

func (m *Manager) dispatch(l *lane) {
	defer m.wg.Done()
	ctx := m.ctx

	for {
		if err := l.slots.Acquire(ctx); err != nil {
			return
		}

		id, err := m.broker.Receive(ctx, string(l.name))
		if err != nil {
			_ = l.slots.Release()
			if ctx.Err() != nil || errors.Is(err, broker.ErrClosed) {
				return
			}
			logger.Error(ctx, "failed to receive job", "lane", l.name, "error", err)
			select {
			case <-time.After(receiveBackoff):
				continue
			case <-ctx.Done():
				return
			}
		}

		task := func(taskCtx context.Context) error {
			defer func() { _ = l.slots.Release() }()
			return m.execute(taskCtx, l, id)
		}
		if err := l.pool.Submit(task); err != nil {
			_ = l.slots.Release()
			fctx, cancel := ctxutil.Detach(ctx, 0)
			m.fail(fctx, id, fmt.Errorf("%w: %w", ErrWorkerStopped, err))
			cancel()
			if errors.Is(err, worker.ErrPoolStopped) {
				return
			}
		}
	}
}
