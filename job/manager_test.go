package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/job/data"
	"github.com/ncobase/weibo-agent/job/data/broker"
	"github.com/ncobase/weibo-agent/job/data/repository"
	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/weibo"
	"github.com/ncobase/weibo-agent/weibo/automation/automationtest"
	weibostructs "github.com/ncobase/weibo-agent/weibo/structs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	matchPassword   = "Log in to Weibo with username and password"
	matchQRGenerate = "prepare QR code login"
	matchQRCheck    = "Check the status"
	matchDelete     = "Delete the Weibo post"
)

const loggedIn = `{"success": true, "user_info": {"nickname": "alice"}}`

func testQueueConfig() *config.Queue {
	return &config.Queue{
		Broker:             config.BrokerMemory,
		Store:              config.StoreMemory,
		KeyPrefix:          "test",
		AnalysisWorkers:    1,
		DeletionWorkers:    1,
		BufferSize:         16,
		SoftTimeLimit:      time.Minute,
		HardTimeLimit:      2 * time.Minute,
		ResultExpires:      time.Hour,
		RevokePollInterval: 5 * time.Millisecond,
	}
}

func testWeiboConfig() *config.Weibo {
	return &config.Weibo{
		MaxDeletePerHour: 100,
		QRPollInterval:   time.Millisecond,
		QRMaxPolls:       5,
		MaxRetries:       2,
		RetryBaseDelay:   time.Millisecond,
	}
}

type failingBroker struct{ broker.Broker }

func (failingBroker) Publish(context.Context, string, string) error {
	return errors.New("connection refused")
}

func newTestManager(t *testing.T, fake *automationtest.Fake, opts ...func(*config.Queue)) *Manager {
	t.Helper()
	return newTestManagerWith(t, fake, testWeiboConfig(), opts...)
}

func newTestManagerWith(t *testing.T, fake *automationtest.Fake, wcfg *config.Weibo, opts ...func(*config.Queue)) *Manager {
	t.Helper()
	cfg := testQueueConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	d := data.NewWith(repository.NewMemory(cfg.ResultExpires), broker.NewMemory(cfg.BufferSize))
	s, err := weibo.NewSession(wcfg, fake, fake)
	require.NoError(t, err)

	m := NewManager(cfg, d)
	RegisterWeiboHandlers(m, s)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.Stop(ctx)
	})
	return m
}

func waitState(t *testing.T, m *Manager, id string, state structs.State) *structs.StatusView {
	t.Helper()
	var v *structs.StatusView
	require.Eventually(t, func() bool {
		var err error
		v, err = m.Status(context.Background(), id)
		return err == nil && v.Status == state
	}, 5*time.Second, 5*time.Millisecond, "job %s never reached %s", id, state)
	return v
}

func TestPasswordLoginThenDelete(t *testing.T) {
	fake := automationtest.New().
		On(matchPassword, automationtest.Out(loggedIn)).
		On(matchDelete, automationtest.Out(`{"success": true}`))
	m := newTestManager(t, fake)
	require.NoError(t, m.Start())
	ctx := context.Background()

	login, err := m.Submit(ctx, structs.KindLogin, structs.LoginPayload{Username: "alice", Password: "secret", UsePassword: true})
	require.NoError(t, err)
	assert.Equal(t, structs.LaneAnalysis, login.Lane)

	v := waitState(t, m, login.ID, structs.StateSuccess)
	assert.Equal(t, MsgCompleted, v.Message)
	require.NotNil(t, v.Progress)
	assert.Equal(t, 100, *v.Progress)

	var res weibostructs.LoginResult
	require.NoError(t, json.Unmarshal(v.Result, &res))
	assert.Equal(t, "alice", res.UserInfo.Nickname())
	assert.Equal(t, weibostructs.LoginMethodPassword, res.LoginMethod)

	del, err := m.Submit(ctx, structs.KindDelete, structs.DeletePayload{PostIDs: []string{"1", "2", "1"}})
	require.NoError(t, err)
	assert.Equal(t, structs.LaneDeletion, del.Lane)

	v = waitState(t, m, del.ID, structs.StateSuccess)
	var batch weibostructs.BatchDeleteResult
	require.NoError(t, json.Unmarshal(v.Result, &batch))
	assert.Equal(t, 2, batch.TotalRequested)
	assert.Equal(t, 2, batch.SuccessfulCount)
	assert.Equal(t, 0, batch.FailedCount)
}

func loginForTest(t *testing.T, m *Manager) {
	t.Helper()
	j, err := m.Submit(context.Background(), structs.KindLogin, structs.LoginPayload{Username: "alice", Password: "secret", UsePassword: true})
	require.NoError(t, err)
	waitState(t, m, j.ID, structs.StateSuccess)
}

func deleteFake() *automationtest.Fake {
	return automationtest.New().
		On(matchPassword, automationtest.Out(loggedIn)).
		On(matchDelete, automationtest.Out(`{"success": true}`))
}

func delayedWeiboConfig(delay time.Duration) *config.Weibo {
	cfg := testWeiboConfig()
	cfg.OperationDelayMin = delay
	cfg.OperationDelayMax = delay
	return cfg
}

func TestDeleteProgressDuringPolitenessDelay(t *testing.T) {
	m := newTestManagerWith(t, deleteFake(), delayedWeiboConfig(300*time.Millisecond))
	require.NoError(t, m.Start())
	loginForTest(t, m)

	j, err := m.Submit(context.Background(), structs.KindDelete, structs.DeletePayload{PostIDs: []string{"1", "2"}})
	require.NoError(t, err)

	var v *structs.StatusView
	require.Eventually(t, func() bool {
		v, err = m.Status(context.Background(), j.ID)
		return err == nil && v.Status == structs.StateProgress &&
			strings.HasPrefix(v.Message, "waiting") && v.Meta[weibo.MetaPostID] == "2"
	}, 5*time.Second, 5*time.Millisecond)

	require.NotNil(t, v.Progress)
	assert.Equal(t, 50, *v.Progress)
	assert.Equal(t, 1, v.Meta["current"])
	assert.Equal(t, 2, v.Meta["total"])
	assert.Equal(t, []string{"1"}, v.Meta[weibo.MetaDeletedIDs])

	waitState(t, m, j.ID, structs.StateSuccess)
}

func TestDeleteSoftTimeLimitKeepsPartialResult(t *testing.T) {
	m := newTestManagerWith(t, deleteFake(), delayedWeiboConfig(100*time.Millisecond),
		func(c *config.Queue) { c.SoftTimeLimit = 250 * time.Millisecond })
	require.NoError(t, m.Start())
	loginForTest(t, m)

	j, err := m.Submit(context.Background(), structs.KindDelete, structs.DeletePayload{PostIDs: []string{"1", "2", "3", "4"}})
	require.NoError(t, err)

	v := waitState(t, m, j.ID, structs.StateFailure)
	assert.Contains(t, v.Error, ErrSoftTimeLimit.Error())
	require.NotEmpty(t, v.Result)

	var batch weibostructs.BatchDeleteResult
	require.NoError(t, json.Unmarshal(v.Result, &batch))
	assert.Equal(t, 4, batch.TotalRequested)
	assert.Equal(t, batch.TotalRequested, batch.SuccessfulCount+batch.FailedCount)
	assert.GreaterOrEqual(t, batch.SuccessfulCount, 1)
	assert.GreaterOrEqual(t, batch.FailedCount, 1)
	assert.False(t, batch.Success)
	assert.Contains(t, v.Error, fmt.Sprintf("(%d of 4 posts deleted)", batch.SuccessfulCount))
}

func TestRevokedDeleteKeepsDeletedIDs(t *testing.T) {
	m := newTestManagerWith(t, deleteFake(), delayedWeiboConfig(100*time.Millisecond))
	require.NoError(t, m.Start())
	loginForTest(t, m)
	ctx := context.Background()

	j, err := m.Submit(ctx, structs.KindDelete, structs.DeletePayload{PostIDs: []string{"1", "2", "3", "4", "5"}})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, err := m.Status(ctx, j.ID)
		return err == nil && v.Meta[weibo.MetaSuccessful] == 1
	}, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, m.Cancel(ctx, j.ID))

	v := waitState(t, m, j.ID, structs.StateRevoked)
	deletedIDs, ok := v.Meta[weibo.MetaDeletedIDs].([]string)
	require.True(t, ok, "deleted ids missing from %v", v.Meta)
	assert.Contains(t, deletedIDs, "1")
	assert.Less(t, len(deletedIDs), 5)
}

func TestDeleteRequiresLogin(t *testing.T) {
	fake := automationtest.New().On(matchDelete, automationtest.Out(`{"success": true}`))
	m := newTestManager(t, fake)
	require.NoError(t, m.Start())

	j, err := m.Submit(context.Background(), structs.KindDelete, structs.DeletePayload{PostIDs: []string{"1"}})
	require.NoError(t, err)

	v := waitState(t, m, j.ID, structs.StateFailure)
	assert.Equal(t, MsgFailed, v.Message)
	assert.Equal(t, weibo.ErrNotLoggedIn.Error(), v.Error)
	assert.Zero(t, fake.CallsMatching(matchDelete))
}

func TestQRLoginJob(t *testing.T) {
	fake := automationtest.New().
		On(matchQRGenerate, automationtest.Out(`{"success": true, "qr_code": "data:image/png;base64,QR", "qr_status": "waiting"}`)).
		On(matchQRCheck,
			automationtest.Out(`{"qr_status": "waiting"}`),
			automationtest.Out(`{"qr_status": "confirmed", "user_info": {"nickname": "bob"}}`),
		)
	m := newTestManager(t, fake)
	require.NoError(t, m.Start())

	j, err := m.Submit(context.Background(), structs.KindLogin, structs.LoginPayload{})
	require.NoError(t, err)
	waitState(t, m, j.ID, structs.StateSuccess)

	qr, err := m.QRStatus(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, weibostructs.QRConfirmed, qr.QRStatus)
	assert.Equal(t, "bob", qr.UserInfo["nickname"])
	assert.Empty(t, qr.Error)
}

func TestInvalidPayloadFails(t *testing.T) {
	m := newTestManager(t, automationtest.New())
	require.NoError(t, m.Start())

	j, err := m.Submit(context.Background(), structs.KindDelete, "not an object")
	require.NoError(t, err)

	v := waitState(t, m, j.ID, structs.StateFailure)
	assert.Contains(t, v.Error, ErrInvalidPayload.Error())
}

func TestCancelPendingJobIsSkipped(t *testing.T) {
	fake := automationtest.New().On(matchPassword, automationtest.Out(loggedIn))
	m := newTestManager(t, fake)
	ctx := context.Background()

	j, err := m.Submit(ctx, structs.KindLogin, structs.LoginPayload{Username: "a", Password: "b", UsePassword: true})
	require.NoError(t, err)
	require.NoError(t, m.Cancel(ctx, j.ID))

	v, err := m.Status(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, structs.StateRevoked, v.Status)
	assert.Equal(t, MsgCancelled, v.Message)

	require.NoError(t, m.Start(structs.LaneAnalysis))
	require.Eventually(t, func() bool {
		st, err := m.Stats(ctx)
		return err == nil && st.Lanes[structs.LaneAnalysis].Completed == 1
	}, 5*time.Second, 5*time.Millisecond)

	assert.Empty(t, fake.Calls())
	v, err = m.Status(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, structs.StateRevoked, v.Status)
}

func TestCancelRunningJob(t *testing.T) {
	fake := automationtest.New()
	fake.Block = true
	m := newTestManager(t, fake)
	require.NoError(t, m.Start())
	ctx := context.Background()

	j, err := m.Submit(ctx, structs.KindLogin, structs.LoginPayload{Username: "a", Password: "b", UsePassword: true})
	require.NoError(t, err)
	waitState(t, m, j.ID, structs.StateProgress)

	require.NoError(t, m.Cancel(ctx, j.ID))
	waitState(t, m, j.ID, structs.StateRevoked)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.running) == 0
	}, 5*time.Second, 5*time.Millisecond)
}

func TestRevocationFromAnotherProcess(t *testing.T) {
	fake := automationtest.New()
	fake.Block = true
	m := newTestManager(t, fake)
	require.NoError(t, m.Start())
	ctx := context.Background()

	j, err := m.Submit(ctx, structs.KindLogin, structs.LoginPayload{})
	require.NoError(t, err)
	waitState(t, m, j.ID, structs.StateProgress)

	// Revoke through the repository only, as a remote API process would.
	_, err = m.repo.Update(ctx, j.ID, func(j *structs.Job) error {
		j.State = structs.StateRevoked
		return nil
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.running) == 0
	}, 5*time.Second, 5*time.Millisecond)
	v, err := m.Status(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, structs.StateRevoked, v.Status)
}

func TestCancelIsIdempotent(t *testing.T) {
	fake := automationtest.New().On(matchPassword, automationtest.Out(loggedIn))
	m := newTestManager(t, fake)
	require.NoError(t, m.Start())
	ctx := context.Background()

	assert.NoError(t, m.Cancel(ctx, "no-such-task"))

	j, err := m.Submit(ctx, structs.KindLogin, structs.LoginPayload{Username: "a", Password: "b", UsePassword: true})
	require.NoError(t, err)
	waitState(t, m, j.ID, structs.StateSuccess)

	assert.NoError(t, m.Cancel(ctx, j.ID))
	assert.NoError(t, m.Cancel(ctx, j.ID))
	v, err := m.Status(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, structs.StateSuccess, v.Status)
}

func TestSoftTimeLimit(t *testing.T) {
	fake := automationtest.New()
	fake.Block = true
	m := newTestManager(t, fake, func(c *config.Queue) { c.SoftTimeLimit = 20 * time.Millisecond })
	require.NoError(t, m.Start())

	j, err := m.Submit(context.Background(), structs.KindLogin, structs.LoginPayload{Username: "a", Password: "b", UsePassword: true})
	require.NoError(t, err)

	v := waitState(t, m, j.ID, structs.StateFailure)
	assert.Contains(t, v.Error, ErrSoftTimeLimit.Error())
}

func TestHardTimeLimit(t *testing.T) {
	m := newTestManager(t, automationtest.New(), func(c *config.Queue) { c.HardTimeLimit = 50 * time.Millisecond })
	stuck := make(chan struct{})
	t.Cleanup(func() { close(stuck) })

	m.RegisterHandler(structs.KindAnalyze, func(context.Context, *structs.Job, chan<- weibo.Event) (any, error) {
		<-stuck
		return nil, nil
	})
	require.NoError(t, m.Start())

	j, err := m.Submit(context.Background(), structs.KindAnalyze, structs.AnalyzePayload{})
	require.NoError(t, err)

	v := waitState(t, m, j.ID, structs.StateFailure)
	assert.Equal(t, "time limit exceeded (50ms)", v.Error)
}

func TestHandlerPanic(t *testing.T) {
	m := newTestManager(t, automationtest.New())
	m.RegisterHandler(structs.KindAnalyze, func(context.Context, *structs.Job, chan<- weibo.Event) (any, error) {
		panic("boom")
	})
	require.NoError(t, m.Start())

	j, err := m.Submit(context.Background(), structs.KindAnalyze, structs.AnalyzePayload{})
	require.NoError(t, err)

	v := waitState(t, m, j.ID, structs.StateFailure)
	assert.Equal(t, "job panicked: boom", v.Error)
}

func TestProgressIsRecorded(t *testing.T) {
	m := newTestManager(t, automationtest.New())
	step := make(chan struct{})
	t.Cleanup(func() { close(step) })

	m.RegisterHandler(structs.KindAnalyze, func(ctx context.Context, _ *structs.Job, events chan<- weibo.Event) (any, error) {
		events <- weibo.Event{Message: "analyzing", Current: 1, Total: 4, Meta: map[string]any{"post_id": "p1"}}
		<-step
		return nil, nil
	})
	require.NoError(t, m.Start())

	j, err := m.Submit(context.Background(), structs.KindAnalyze, structs.AnalyzePayload{})
	require.NoError(t, err)

	var v *structs.StatusView
	require.Eventually(t, func() bool {
		v, err = m.Status(context.Background(), j.ID)
		return err == nil && v.Message == "analyzing"
	}, 5*time.Second, 5*time.Millisecond)
	require.NotNil(t, v.Progress)
	assert.Equal(t, 25, *v.Progress)
	assert.Equal(t, "p1", v.Meta["post_id"])
	assert.Equal(t, 4, v.Meta["total"])
}

func TestStatusUnknownJob(t *testing.T) {
	m := newTestManager(t, automationtest.New())

	_, err := m.Status(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = m.QRStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSubmitUnknownKind(t *testing.T) {
	m := newTestManager(t, automationtest.New())
	_, err := m.Submit(context.Background(), structs.Kind("export"), nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSubmitQueueUnavailable(t *testing.T) {
	cfg := testQueueConfig()
	d := data.NewWith(repository.NewMemory(time.Hour), failingBroker{broker.NewMemory(1)})
	m := NewManager(cfg, d)
	m.RegisterHandler(structs.KindDelete, func(context.Context, *structs.Job, chan<- weibo.Event) (any, error) {
		return nil, nil
	})
	ctx := context.Background()

	_, err := m.Submit(ctx, structs.KindDelete, structs.DeletePayload{PostIDs: []string{"1"}})
	assert.ErrorIs(t, err, ErrQueueUnavailable)

	jobs, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, structs.StateFailure, jobs[0].State)
	assert.Contains(t, jobs[0].Error, "connection refused")
}

func TestStats(t *testing.T) {
	m := newTestManager(t, automationtest.New())
	ctx := context.Background()

	for range 2 {
		_, err := m.Submit(ctx, structs.KindAnalyze, structs.AnalyzePayload{})
		require.NoError(t, err)
	}
	_, err := m.Submit(ctx, structs.KindDelete, structs.DeletePayload{PostIDs: []string{"1"}})
	require.NoError(t, err)

	s, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.ActiveTasks)
	assert.Equal(t, int64(3), s.ReservedTasks)
	assert.Equal(t, int64(3), s.TotalPending)
}
