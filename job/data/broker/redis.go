package broker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// blockTimeout bounds each BLPOP so Receive notices cancellation.
const blockTimeout = time.Second

type redisBroker struct {
	rc     *redis.Client
	prefix string
	closed atomic.Bool
}

// NewRedis returns a broker keeping each lane in a Redis list.
func NewRedis(rc *redis.Client, prefix string) Broker {
	return &redisBroker{rc: rc, prefix: prefix}
}

func (b *redisBroker) key(lane string) string {
	return fmt.Sprintf("%s:lane:%s", b.prefix, lane)
}

func (b *redisBroker) Publish(ctx context.Context, lane, id string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if err := b.rc.RPush(ctx, b.key(lane), id).Err(); err != nil {
		return fmt.Errorf("failed to publish to lane %s: %w", lane, err)
	}
	return nil
}

func (b *redisBroker) Receive(ctx context.Context, lane string) (string, error) {
	key := b.key(lane)
	for {
		if b.closed.Load() {
			return "", ErrClosed
		}
		if ctx.Err() != nil {
			return "", context.Cause(ctx)
		}
		res, err := b.rc.BLPop(ctx, blockTimeout, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", context.Cause(ctx)
			}
			return "", fmt.Errorf("failed to receive from lane %s: %w", lane, err)
		}
		// BLPOP replies with [key, value].
		if len(res) == 2 {
			return res[1], nil
		}
	}
}

func (b *redisBroker) Len(ctx context.Context, lane string) (int64, error) {
	n, err := b.rc.LLen(ctx, b.key(lane)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to measure lane %s: %w", lane, err)
	}
	return n, nil
}

// Close stops the broker; the client is owned by the data layer.
func (b *redisBroker) Close() error {
	b.closed.Store(true)
	return nil
}
