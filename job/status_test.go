package job

import (
	"testing"

	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/weibo"
	weibostructs "github.com/ncobase/weibo-agent/weibo/structs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView(t *testing.T) {
	pct := 40
	tests := []struct {
		name     string
		job      structs.Job
		message  string
		progress *int
	}{
		{"pending", structs.Job{State: structs.StatePending}, MsgPending, nil},
		{"running without message", structs.Job{State: structs.StateProgress}, MsgRunning, nil},
		{"running", structs.Job{State: structs.StateProgress, Progress: structs.Progress{Message: "deleting", Percent: &pct}}, "deleting", &pct},
		{"failed", structs.Job{State: structs.StateFailure, Error: "boom"}, MsgFailed, nil},
		{"revoked", structs.Job{State: structs.StateRevoked}, MsgCancelled, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.job.ID = "t1"
			v := View(&tt.job)
			assert.Equal(t, "t1", v.TaskID)
			assert.Equal(t, tt.message, v.Message)
			assert.Equal(t, tt.progress, v.Progress)
		})
	}

	v := View(&structs.Job{State: structs.StateSuccess, Result: []byte(`{"ok":true}`)})
	require.NotNil(t, v.Progress)
	assert.Equal(t, 100, *v.Progress)
	assert.JSONEq(t, `{"ok":true}`, string(v.Result))
	assert.Empty(t, v.Error)

	v = View(&structs.Job{State: structs.StateFailure, Error: "boom"})
	assert.Equal(t, "boom", v.Error)
	assert.Nil(t, v.Result)
	assert.Nil(t, v.Progress)

	partial := &structs.Job{
		State:    structs.StateRevoked,
		Result:   []byte(`{"successful_count":1}`),
		Progress: structs.Progress{Message: "deleting post 2", Meta: map[string]any{weibo.MetaDeletedIDs: []string{"1"}}},
	}
	v = View(partial)
	assert.Equal(t, MsgCancelled, v.Message)
	assert.JSONEq(t, `{"successful_count":1}`, string(v.Result))
	assert.Equal(t, []string{"1"}, v.Meta[weibo.MetaDeletedIDs])
}

func TestQRView(t *testing.T) {
	v := QRView(&structs.Job{State: structs.StatePending})
	assert.Equal(t, weibostructs.QRWaiting, v.QRStatus)
	assert.Equal(t, MsgQRPending, v.Message)

	v = QRView(&structs.Job{State: structs.StateProgress, Progress: structs.Progress{
		Message: "qr status: scanned",
		Meta:    map[string]any{weibo.MetaQRCode: "data:image/png;base64,QR", weibo.MetaQRStatus: "scanned"},
	}})
	assert.Equal(t, "scanned", v.QRStatus)
	assert.Equal(t, "data:image/png;base64,QR", v.QRCode)
	assert.Equal(t, "qr status: scanned", v.Message)

	v = QRView(&structs.Job{State: structs.StateFailure, Error: "qr code expired"})
	assert.Equal(t, weibostructs.QRError, v.QRStatus)
	assert.Equal(t, "qr code expired", v.Error)

	v = QRView(&structs.Job{State: structs.StateRevoked})
	assert.Equal(t, weibostructs.QRError, v.QRStatus)
	assert.Equal(t, MsgCancelled, v.Message)
}

func TestProgressFrom(t *testing.T) {
	p := progressFrom(weibo.Event{Message: "delete progress", Current: 3, Total: 4})
	require.NotNil(t, p.Percent)
	assert.Equal(t, 75, *p.Percent)
	assert.Equal(t, 3, p.Meta["current"])

	meta := map[string]any{weibo.MetaQRStatus: "waiting"}
	p = progressFrom(weibo.Event{Message: "qr status: waiting", Meta: meta})
	assert.Nil(t, p.Percent)
	p.Meta["extra"] = true
	assert.NotContains(t, meta, "extra")
}
