package weibo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/metrics"
	"github.com/ncobase/weibo-agent/weibo/extract"
	"github.com/ncobase/weibo-agent/weibo/retry"
	"github.com/ncobase/weibo-agent/weibo/structs"
)

// Progress meta keys of a batch deletion.
const (
	MetaSuccessful = "successful"
	MetaFailed     = "failed"
	MetaPostID     = "post_id"
	MetaDeletedIDs = "deleted_ids"
)

// DeletePost deletes one post. It waits for the hourly budget and a random
// politeness delay first. Delegate errors are retried; an unreadable answer
// or an explicit refusal is final, so a destructive action is never repeated
// after the engine reported on it.
func (s *Session) DeletePost(ctx context.Context, id string, events chan<- Event) structs.DeleteOutcome {
	return s.deleteOne(ctx, id, func(msg string) {
		emit(ctx, events, Event{Message: msg, Total: 1, Meta: map[string]any{MetaPostID: id}})
	})
}

func (s *Session) deleteOne(ctx context.Context, id string, report func(string)) structs.DeleteOutcome {
	o := structs.NewDeleteOutcome(id, s.deletePost(ctx, id, report))
	metrics.Deletion(o.Success)
	return o
}

func (s *Session) deletePost(ctx context.Context, id string, report func(string)) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return fmt.Errorf("hourly deletion budget: %w", err)
	}

	delay := s.politenessDelay()
	report(fmt.Sprintf("waiting %s before deleting post %s", delay.Round(100*time.Millisecond), id))
	if err := sleep(ctx, delay); err != nil {
		return err
	}

	report("deleting post " + id)

	out := retry.Do(ctx, func(ctx context.Context) (struct{}, error) {
		raw, err := s.browser.Run(ctx, deleteTask(id))
		if err != nil {
			return struct{}{}, err
		}
		rec, err := extract.Extract(raw)
		if err != nil {
			return struct{}{}, retry.Permanent(fmt.Errorf("failed to parse delete result: %w", err))
		}
		if !rec.Bool("success", false) {
			return struct{}{}, retry.Permanent(fmt.Errorf("%w: %s", ErrDeleteRejected, rec.String("error", "no reason given")))
		}
		return struct{}{}, nil
	}, s.retryOptions(ctx, "delete_post")...)

	if out.Err != nil {
		logger.Warn(ctx, "post deletion failed", "post_id", id, "attempts", out.Attempts, "error", out.Err)
		return out.Err
	}
	logger.Info(ctx, "post deleted", "post_id", id)
	return nil
}

// BatchDelete deletes ids one at a time in order, skipping duplicates. Each
// item is a cancellation checkpoint; when ctx ends, every id not yet attempted
// is recorded as failed so the partitions always add up to the request. The
// partial result is returned together with the cancellation cause.
//
// Every event carries the batch position and the ids deleted so far, so the
// last recorded progress of an interrupted batch still names them.
func (s *Session) BatchDelete(ctx context.Context, ids []string, events chan<- Event) (*structs.BatchDeleteResult, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}

	ids = uniqueIDs(ids)
	total := len(ids)
	res := structs.NewBatchDeleteResult(total)
	logger.Info(ctx, "starting batch delete", "total", total)

	for i, id := range ids {
		if ctx.Err() != nil {
			for _, rest := range ids[i:] {
				res.Add(structs.NewDeleteOutcome(rest, ErrBatchCancelled))
			}
			logger.Info(ctx, "batch delete cancelled", "attempted", i, "total", total)
			return res, context.Cause(ctx)
		}

		res.Add(s.deleteOne(ctx, id, func(msg string) {
			emit(ctx, events, batchEvent(msg, id, i, res))
		}))
		emit(ctx, events, batchEvent("delete progress", id, i+1, res))
	}
	if ctx.Err() != nil {
		return res, context.Cause(ctx)
	}

	res.Complete()
	logger.Info(ctx, "batch delete finished", "successful", res.SuccessfulCount, "failed", res.FailedCount)
	return res, nil
}

func batchEvent(msg, id string, done int, res *structs.BatchDeleteResult) Event {
	return Event{
		Message: msg,
		Current: done,
		Total:   res.TotalRequested,
		Meta: map[string]any{
			MetaPostID:     id,
			MetaSuccessful: res.SuccessfulCount,
			MetaFailed:     res.FailedCount,
			MetaDeletedIDs: res.DeletedIDs(),
		},
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
