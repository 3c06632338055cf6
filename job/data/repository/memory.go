package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/patrickmn/go-cache"
)

type memoryRepository struct {
	mu      sync.Mutex
	store   *cache.Cache
	expires time.Duration
}

// NewMemory returns an in-process repository. Terminal records are evicted
// after expires.
func NewMemory(expires time.Duration) JobRepository {
	cleanup := expires / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	return &memoryRepository{
		store:   cache.New(cache.NoExpiration, cleanup),
		expires: expires,
	}
}

func (r *memoryRepository) Create(ctx context.Context, job *structs.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Add(job.ID, job.Clone(), r.lifetime(job.State)); err != nil {
		return ErrExists
	}
	return nil
}

func (r *memoryRepository) Get(ctx context.Context, id string) (*structs.Job, error) {
	v, ok := r.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*structs.Job).Clone(), nil
}

func (r *memoryRepository) Update(ctx context.Context, id string, mutate Mutator) (*structs.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	next, err := apply(v.(*structs.Job), mutate)
	if err != nil {
		return nil, err
	}
	r.store.Set(id, next, r.lifetime(next.State))
	return next.Clone(), nil
}

func (r *memoryRepository) List(ctx context.Context) ([]*structs.Job, error) {
	items := r.store.Items()
	jobs := make([]*structs.Job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, item.Object.(*structs.Job).Clone())
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (r *memoryRepository) Stats(ctx context.Context) (map[structs.State]int, error) {
	jobs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return countStates(jobs), nil
}

func (r *memoryRepository) Close() error {
	r.store.Flush()
	return nil
}

func (r *memoryRepository) lifetime(s structs.State) time.Duration {
	if d := ttl(s, r.expires); d > 0 {
		return d
	}
	return cache.NoExpiration
}
