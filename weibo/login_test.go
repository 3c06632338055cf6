package weibo

import (
	"context"
	"testing"
	"time"

	"github.com/ncobase/weibo-agent/weibo/automation/automationtest"
	"github.com/ncobase/weibo-agent/weibo/structs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatedQR = `Done. {"success": true, "qr_code": "data:image/png;base64,AAAA", "qr_status": "waiting"}`

func qrStatus(status string) automationtest.Reply {
	return automationtest.Out(map[string]any{"success": true, "qr_status": status})
}

func TestLoginQRConfirmedAfterWaiting(t *testing.T) {
	fake := automationtest.New().
		On(matchQRGenerate, automationtest.Out(generatedQR)).
		On(matchQRCheck,
			qrStatus(structs.QRWaiting),
			qrStatus(structs.QRWaiting),
			automationtest.Out(`{"success": true, "qr_status": "confirmed", "user_info": {"nickname": "alice", "followers_count": 12}}`),
		)
	s := newTestSession(t, fake)
	events := make(chan Event, 64)

	res, err := s.LoginQR(context.Background(), events)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, structs.LoginMethodQR, res.LoginMethod)
	assert.Equal(t, "alice", res.UserInfo.Nickname())
	assert.Equal(t, "12", res.UserInfo["followers_count"])
	assert.True(t, s.LoggedIn())
	assert.Equal(t, 3, fake.CallsMatching(matchQRCheck))

	var statuses []string
	for _, ev := range drain(events) {
		if ev.Meta == nil {
			continue
		}
		assert.Equal(t, "data:image/png;base64,AAAA", ev.Meta[MetaQRCode])
		assert.Equal(t, 5, ev.Meta[MetaMaxAttempts])
		statuses = append(statuses, ev.Meta[MetaQRStatus].(string))
	}
	assert.Equal(t, []string{"waiting", "waiting", "waiting", "confirmed"}, statuses)
}

func TestLoginQRExpired(t *testing.T) {
	fake := automationtest.New().
		On(matchQRGenerate, automationtest.Out(generatedQR)).
		On(matchQRCheck, qrStatus(structs.QRScanned), qrStatus(structs.QRExpired))
	s := newTestSession(t, fake)

	_, err := s.LoginQR(context.Background(), nil)
	assert.ErrorIs(t, err, ErrQRExpired)
	assert.Equal(t, "qr code expired", err.Error())
	assert.False(t, s.LoggedIn())
}

func TestLoginQRTimeout(t *testing.T) {
	fake := automationtest.New().
		On(matchQRGenerate, automationtest.Out(generatedQR)).
		On(matchQRCheck, qrStatus(structs.QRWaiting))
	s := newTestSession(t, fake)

	_, err := s.LoginQR(context.Background(), nil)
	assert.ErrorIs(t, err, ErrQRTimeout)
	assert.Equal(t, 5, fake.CallsMatching(matchQRCheck))
	assert.False(t, s.LoggedIn())
}

func TestLoginQRCheckFailureCountsAsWaiting(t *testing.T) {
	fake := automationtest.New().
		On(matchQRGenerate, automationtest.Out(generatedQR)).
		On(matchQRCheck,
			automationtest.Fail(errFlaky),
			automationtest.Fail(errFlaky),
			automationtest.Fail(errFlaky),
			qrStatus(structs.QRConfirmed),
		)
	s := newTestSession(t, fake)

	res, err := s.LoginQR(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 4, fake.CallsMatching(matchQRCheck))
}

func TestLoginQRUnreadableCheckIsError(t *testing.T) {
	fake := automationtest.New().
		On(matchQRGenerate, automationtest.Out(generatedQR)).
		On(matchQRCheck, automationtest.Out("the page shows a slider"))
	s := newTestSession(t, fake)

	_, err := s.LoginQR(context.Background(), nil)
	assert.ErrorIs(t, err, ErrQRLogin)
	assert.Contains(t, err.Error(), "failed to parse qr status")
}

func TestLoginQRUnreadableGenerationKeepsPolling(t *testing.T) {
	fake := automationtest.New().
		On(matchQRGenerate, automationtest.Out("I opened the login page")).
		On(matchQRCheck, qrStatus(structs.QRConfirmed))
	s := newTestSession(t, fake)
	events := make(chan Event, 16)

	_, err := s.LoginQR(context.Background(), events)
	require.NoError(t, err)

	var warned bool
	for _, ev := range drain(events) {
		if ev.Meta != nil && ev.Meta[MetaWarning] == unreadableQRWarning {
			warned = true
			assert.Equal(t, "", ev.Meta[MetaQRCode])
		}
	}
	assert.True(t, warned)
}

func TestLoginQRGenerationRefused(t *testing.T) {
	fake := automationtest.New().
		On(matchQRGenerate, automationtest.Out(`{"success": false, "error": "page did not load"}`))
	s := newTestSession(t, fake)

	_, err := s.LoginQR(context.Background(), nil)
	assert.ErrorIs(t, err, ErrQRGeneration)
	assert.Contains(t, err.Error(), "page did not load")
	assert.Zero(t, fake.CallsMatching(matchQRCheck))
}

func TestLoginQRGenerationDelegateFailure(t *testing.T) {
	fake := automationtest.New().On(matchQRGenerate, automationtest.Fail(errFlaky))
	s := newTestSession(t, fake)

	_, err := s.LoginQR(context.Background(), nil)
	assert.ErrorIs(t, err, ErrQRGeneration)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, fake.CallsMatching(matchQRGenerate))
}

func TestLoginQRCancelledWhilePolling(t *testing.T) {
	fake := automationtest.New().
		On(matchQRGenerate, automationtest.Out(generatedQR)).
		On(matchQRCheck, qrStatus(structs.QRWaiting))
	cfg := testConfig()
	cfg.QRPollInterval = 10 * time.Millisecond
	cfg.QRMaxPolls = 1000
	s, err := NewSession(cfg, fake, fake)
	require.NoError(t, err)

	ctx, cancel := context.WithCancelCause(context.Background())
	time.AfterFunc(50*time.Millisecond, func() { cancel(errRevokedForTest) })

	_, err = s.LoginQR(ctx, nil)
	assert.ErrorIs(t, err, errRevokedForTest)
	assert.False(t, s.LoggedIn())
}

func TestLoginPassword(t *testing.T) {
	fake := automationtest.New().
		On(matchPassword, automationtest.Out(`{"success": true, "user_info": {"nickname": "bob"}}`))
	s := newTestSession(t, fake)

	res, err := s.LoginPassword(context.Background(), "bob@example.com", "secret", nil)
	require.NoError(t, err)
	assert.Equal(t, structs.LoginMethodPassword, res.LoginMethod)
	assert.Equal(t, "bob@example.com", res.Username)
	assert.Equal(t, "bob", res.UserInfo.Nickname())
	assert.True(t, s.LoggedIn())
}

func TestLoginPasswordRejected(t *testing.T) {
	fake := automationtest.New().
		On(matchPassword, automationtest.Out(`{"success": false, "error": "password login disabled"}`))
	s := newTestSession(t, fake)

	_, err := s.LoginPassword(context.Background(), "bob", "secret", nil)
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "password login disabled")
	assert.False(t, s.LoggedIn())
}

func TestLoginPasswordRequiresCredentials(t *testing.T) {
	fake := automationtest.New()
	s := newTestSession(t, fake)

	_, err := s.LoginPassword(context.Background(), " ", "secret", nil)
	assert.ErrorIs(t, err, ErrCredentialsRequired)
	_, err = s.LoginPassword(context.Background(), "bob", "", nil)
	assert.ErrorIs(t, err, ErrCredentialsRequired)
	assert.Empty(t, fake.Calls())
}
