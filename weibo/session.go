// Package weibo drives a Weibo account through the browser automation
// engine. A Session is LOGGED_OUT until a login succeeds and never goes back;
// every delegated call is retried and its output parsed into typed values.
package weibo

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ncobase/weibo-agent/concurrency"
	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/metrics"
	"github.com/ncobase/weibo-agent/weibo/automation"
	"github.com/ncobase/weibo-agent/weibo/retry"
	"github.com/ncobase/weibo-agent/weibo/structs"
	"golang.org/x/time/rate"
)

// Event is a progress notification sent by session operations.
type Event = structs.Event

// AccountStore shares the login state and the account lock between the
// processes serving one account.
type AccountStore interface {
	// Load returns the saved state, or nil when none was saved.
	Load(ctx context.Context) (*structs.AccountState, error)
	Save(ctx context.Context, state structs.AccountState) error
	// Lock blocks until this process holds the account.
	Lock(ctx context.Context) (unlock func(), err error)
}

// Option configures a Session.
type Option func(*Session)

// WithAccountStore shares the session through store. A nil store keeps the
// state in process.
func WithAccountStore(store AccountStore) Option {
	return func(s *Session) {
		s.store = store
	}
}

// Session is the automation state of one Weibo account.
type Session struct {
	cfg     *config.Weibo
	browser automation.Automator
	llm     automation.Completer
	lock    *concurrency.Manager
	limiter *rate.Limiter
	store   AccountStore

	mu       sync.RWMutex
	loggedIn bool
	userInfo structs.UserInfo
}

// NewSession creates a logged out session.
func NewSession(cfg *config.Weibo, browser automation.Automator, llm automation.Completer, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("weibo config is required")
	}
	if browser == nil {
		return nil, errors.New("browser automator is required")
	}

	lock, err := concurrency.NewManager(1)
	if err != nil {
		return nil, err
	}

	perHour := max(cfg.MaxDeletePerHour, 1)

	s := &Session{
		cfg:      cfg,
		browser:  browser,
		llm:      llm,
		lock:     lock,
		limiter:  rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour),
		userInfo: structs.UserInfo{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Lock waits until no other job holds the account and returns the release
// function. Releasing more than once is harmless. With an account store the
// lock spans processes, and the login state saved by other processes is
// loaded once it is held.
func (s *Session) Lock(ctx context.Context) (func(), error) {
	if err := s.lock.Acquire(ctx); err != nil {
		return nil, err
	}
	unlockShared := func() {}
	if s.store != nil {
		unlock, err := s.store.Lock(ctx)
		if err != nil {
			_ = s.lock.Release()
			return nil, fmt.Errorf("failed to lock account: %w", err)
		}
		if err := s.refresh(ctx); err != nil {
			unlock()
			_ = s.lock.Release()
			return nil, err
		}
		unlockShared = unlock
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unlockShared()
			_ = s.lock.Release()
		})
	}, nil
}

func (s *Session) refresh(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load account state: %w", err)
	}
	if state != nil && state.LoggedIn {
		s.setLoggedIn(state.UserInfo)
	}
	return nil
}

// LoggedIn reports whether a login has succeeded.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// UserInfo returns a copy of the profile captured at login.
func (s *Session) UserInfo() structs.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := make(structs.UserInfo, len(s.userInfo))
	for k, v := range s.userInfo {
		info[k] = v
	}
	return info
}

func (s *Session) setLoggedIn(info structs.UserInfo) {
	if info == nil {
		info = structs.UserInfo{}
	}
	s.mu.Lock()
	s.loggedIn = true
	s.userInfo = info
	s.mu.Unlock()
}

// markLoggedIn records a successful login and shares it when a store is set.
func (s *Session) markLoggedIn(ctx context.Context, info structs.UserInfo) error {
	s.setLoggedIn(info)
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, structs.AccountState{LoggedIn: true, UserInfo: s.UserInfo()}); err != nil {
		return fmt.Errorf("failed to save account state: %w", err)
	}
	return nil
}

func (s *Session) retryOptions(ctx context.Context, op string) []retry.Option {
	return []retry.Option{
		retry.WithMaxAttempts(s.cfg.MaxRetries),
		retry.WithBaseDelay(s.cfg.RetryBaseDelay),
		retry.WithNotify(func(attempt, max int) {
			metrics.AutomationAttempt(op)
			if attempt > 1 {
				logger.Info(ctx, "retrying automation call", "operation", op, "attempt", attempt, "max_attempts", max)
			}
		}),
		retry.WithOnRetry(func(err error, wait time.Duration) {
			logger.Warn(ctx, "automation call failed", "operation", op, "error", err, "wait", wait.String())
		}),
	}
}

// run sends task to the browser with retries.
func (s *Session) run(ctx context.Context, op, task string) (any, error) {
	out := retry.Do(ctx, func(ctx context.Context) (any, error) {
		return s.browser.Run(ctx, task)
	}, s.retryOptions(ctx, op)...)
	if out.Err != nil {
		return nil, fmt.Errorf("%s failed after %d attempts: %w", op, out.Attempts, out.Err)
	}
	return out.Value, nil
}

// politenessDelay picks a uniform delay in [OperationDelayMin, OperationDelayMax].
func (s *Session) politenessDelay() time.Duration {
	lo, hi := s.cfg.OperationDelayMin, s.cfg.OperationDelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

// emit delivers ev unless events is nil or ctx ends first.
func emit(ctx context.Context, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// sleep pauses for d and returns the cancellation cause if ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
