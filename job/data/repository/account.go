package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ncobase/weibo-agent/ctxutil"
	weibostructs "github.com/ncobase/weibo-agent/weibo/structs"
	"github.com/redis/go-redis/v9"
)

const accountLockRetry = 50 * time.Millisecond

// unlockScript deletes the lock only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AccountStore keeps the weibo login state in redis and serializes jobs
// touching the account across worker processes with a SET NX lock.
type AccountStore struct {
	rc      *redis.Client
	prefix  string
	lockTTL time.Duration
}

// NewAccountStore returns a store under prefix. A lock not released within
// lockTTL expires, so a crashed worker cannot hold the account forever.
func NewAccountStore(rc *redis.Client, prefix string, lockTTL time.Duration) *AccountStore {
	return &AccountStore{rc: rc, prefix: prefix, lockTTL: lockTTL}
}

func (a *AccountStore) stateKey() string {
	return a.prefix + ":account:state"
}

func (a *AccountStore) lockKey() string {
	return a.prefix + ":account:lock"
}

// Load returns the saved state, or nil when none was saved.
func (a *AccountStore) Load(ctx context.Context) (*weibostructs.AccountState, error) {
	data, err := a.rc.Get(ctx, a.stateKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account state: %w", err)
	}
	var state weibostructs.AccountState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode account state: %w", err)
	}
	return &state, nil
}

// Save replaces the shared state.
func (a *AccountStore) Save(ctx context.Context, state weibostructs.AccountState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal account state: %w", err)
	}
	if err := a.rc.Set(ctx, a.stateKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save account state: %w", err)
	}
	return nil
}

// Lock polls until the account lock is free or ctx ends. The returned unlock
// function is safe to call after ctx ended.
func (a *AccountStore) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	t := time.NewTicker(accountLockRetry)
	defer t.Stop()
	for {
		ok, err := a.rc.SetNX(ctx, a.lockKey(), token, a.lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, context.Cause(ctx)
			}
			return nil, fmt.Errorf("failed to take account lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}

	return func() {
		uctx, cancel := ctxutil.Detach(ctx, 0)
		defer cancel()
		_ = unlockScript.Run(uctx, a.rc, []string{a.lockKey()}, token).Err()
	}, nil
}
