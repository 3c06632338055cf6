package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/weibo"
)

// RegisterWeiboHandlers binds every job kind to s. Each handler holds the
// session lock while it runs.
func RegisterWeiboHandlers(m *Manager, s *weibo.Session) {
	m.RegisterHandler(structs.KindLogin, loginHandler(s))
	m.RegisterHandler(structs.KindAnalyze, analyzeHandler(s))
	m.RegisterHandler(structs.KindDelete, deleteHandler(s))
}

func decode(job *structs.Job, v any) error {
	if err := json.Unmarshal(job.Payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}

func locked(ctx context.Context, s *weibo.Session, fn func() (any, error)) (any, error) {
	release, err := s.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return fn()
}

func loginHandler(s *weibo.Session) Handler {
	return func(ctx context.Context, job *structs.Job, events chan<- weibo.Event) (any, error) {
		var p structs.LoginPayload
		if err := decode(job, &p); err != nil {
			return nil, err
		}
		logger.Info(ctx, "login job", "job_id", job.ID, "payload", p.Redacted())

		return locked(ctx, s, func() (any, error) {
			if p.UsePassword {
				return s.LoginPassword(ctx, p.Username, p.Password, events)
			}
			return s.LoginQR(ctx, events)
		})
	}
}

func analyzeHandler(s *weibo.Session) Handler {
	return func(ctx context.Context, job *structs.Job, events chan<- weibo.Event) (any, error) {
		var p structs.AnalyzePayload
		if err := decode(job, &p); err != nil {
			return nil, err
		}

		return locked(ctx, s, func() (any, error) {
			return s.AnalyzePosts(ctx, p.Criteria, events)
		})
	}
}

func deleteHandler(s *weibo.Session) Handler {
	return func(ctx context.Context, job *structs.Job, events chan<- weibo.Event) (any, error) {
		var p structs.DeletePayload
		if err := decode(job, &p); err != nil {
			return nil, err
		}

		return locked(ctx, s, func() (any, error) {
			res, err := s.BatchDelete(ctx, p.PostIDs, events)
			switch {
			case err == nil:
				return res, nil
			case res == nil:
				return nil, err
			default:
				return res, fmt.Errorf("%w (%d of %d posts deleted)", err, res.SuccessfulCount, res.TotalRequested)
			}
		})
	}
}
