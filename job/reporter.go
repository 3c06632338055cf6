package job

import (
	"context"
	"errors"
	"maps"

	"github.com/ncobase/weibo-agent/job/data/repository"
	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/weibo"
)

const reporterBuffer = 16

// reporter writes handler events into the job record as progress.
type reporter struct {
	events chan weibo.Event
	quit   chan struct{}
	done   chan struct{}
}

func (m *Manager) startReporter(ctx context.Context, id string) *reporter {
	r := &reporter{
		events: make(chan weibo.Event, reporterBuffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		for {
			select {
			case ev := <-r.events:
				m.report(ctx, id, ev)
			case <-r.quit:
				for {
					select {
					case ev := <-r.events:
						m.report(ctx, id, ev)
					default:
						return
					}
				}
			}
		}
	}()
	return r
}

// stop flushes buffered events and waits for the writer. The events channel
// stays open since an abandoned handler may still hold it.
func (r *reporter) stop() {
	close(r.quit)
	<-r.done
}

func (m *Manager) report(ctx context.Context, id string, ev weibo.Event) {
	_, err := m.repo.Update(ctx, id, func(j *structs.Job) error {
		j.Progress = progressFrom(ev)
		return nil
	})
	if err != nil && !errors.Is(err, repository.ErrTerminal) {
		logger.Warn(ctx, "failed to record progress", "job_id", id, "error", err)
	}
}

func progressFrom(ev weibo.Event) structs.Progress {
	p := structs.Progress{Message: ev.Message, Meta: maps.Clone(ev.Meta)}
	if ev.Total > 0 {
		percent := ev.Current * 100 / ev.Total
		p.Percent = &percent
		if p.Meta == nil {
			p.Meta = make(map[string]any, 2)
		}
		p.Meta["current"] = ev.Current
		p.Meta["total"] = ev.Total
	}
	return p
}
