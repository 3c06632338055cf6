package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 16

type redisRepository struct {
	rc      *redis.Client
	prefix  string
	expires time.Duration
}

// NewRedis returns a repository storing JSON documents under prefix. Updates
// use optimistic WATCH/MULTI transactions so several worker processes may
// share it.
func NewRedis(rc *redis.Client, prefix string, expires time.Duration) JobRepository {
	return &redisRepository{rc: rc, prefix: prefix, expires: expires}
}

func (r *redisRepository) key(id string) string {
	return fmt.Sprintf("%s:job:%s", r.prefix, id)
}

func (r *redisRepository) indexKey() string {
	return r.prefix + ":jobs"
}

func (r *redisRepository) Create(ctx context.Context, job *structs.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	ok, err := r.rc.SetNX(ctx, r.key(job.ID), data, ttl(job.State, r.expires)).Result()
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	if !ok {
		return ErrExists
	}
	if err := r.rc.SAdd(ctx, r.indexKey(), job.ID).Err(); err != nil {
		return fmt.Errorf("failed to index job: %w", err)
	}
	return nil
}

func (r *redisRepository) Get(ctx context.Context, id string) (*structs.Job, error) {
	data, err := r.rc.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return decode(data)
}

func (r *redisRepository) Update(ctx context.Context, id string, mutate Mutator) (*structs.Job, error) {
	key := r.key(id)
	var next *structs.Job

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		current, err := decode(data)
		if err != nil {
			return err
		}
		next, err = apply(current, mutate)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, ttl(next.State, r.expires))
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.rc.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return next, nil
	}
	return nil, fmt.Errorf("failed to update job %s: too much contention", id)
}

func (r *redisRepository) List(ctx context.Context) ([]*structs.Job, error) {
	ids, err := r.rc.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(ids) == 0 {
		return []*structs.Job{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	values, err := r.rc.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}

	jobs := make([]*structs.Job, 0, len(values))
	var expired []any
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		j, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if len(expired) > 0 {
		r.rc.SRem(ctx, r.indexKey(), expired...)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (r *redisRepository) Stats(ctx context.Context) (map[structs.State]int, error) {
	jobs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return countStates(jobs), nil
}

// Close is a no-op; the client is owned by the data layer.
func (r *redisRepository) Close() error {
	return nil
}

func decode(data []byte) (*structs.Job, error) {
	var j structs.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &j, nil
}
