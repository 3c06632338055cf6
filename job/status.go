package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ncobase/weibo-agent/job/data/repository"
	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/weibo"
	weibostructs "github.com/ncobase/weibo-agent/weibo/structs"
)

// Status messages
const (
	MsgPending   = "task is waiting to run"
	MsgRunning   = "task is running"
	MsgCompleted = "task completed"
	MsgFailed    = "task failed"
	MsgCancelled = "task was cancelled"
	MsgQRPending = "generating qr code"
)

// Status returns the client view of a job.
func (m *Manager) Status(ctx context.Context, id string) (*structs.StatusView, error) {
	j, err := m.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return View(j), nil
}

// View maps a job record to its client view. A job that ended early keeps
// its last progress meta and any partial result.
func View(j *structs.Job) *structs.StatusView {
	v := &structs.StatusView{TaskID: j.ID, Status: j.State}

	switch j.State {
	case structs.StatePending:
		v.Message = MsgPending
	case structs.StateProgress:
		v.Message = j.Progress.Message
		if v.Message == "" {
			v.Message = MsgRunning
		}
		v.Progress = j.Progress.Percent
		v.Meta = j.Progress.Meta
	case structs.StateSuccess:
		hundred := 100
		v.Message = MsgCompleted
		v.Progress = &hundred
		v.Result = j.Result
	case structs.StateFailure:
		v.Message = MsgFailed
		v.Error = j.Error
		v.Result = j.Result
		v.Meta = j.Progress.Meta
	case structs.StateRevoked:
		v.Message = MsgCancelled
		v.Result = j.Result
		v.Meta = j.Progress.Meta
	}
	return v
}

// QRStatus returns the QR login view of a login job.
func (m *Manager) QRStatus(ctx context.Context, id string) (*structs.QRStatusView, error) {
	j, err := m.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return QRView(j), nil
}

// QRView maps a login job to the QR status view.
func QRView(j *structs.Job) *structs.QRStatusView {
	v := &structs.QRStatusView{TaskID: j.ID, Status: j.State}

	switch j.State {
	case structs.StatePending:
		v.QRStatus = weibostructs.QRWaiting
		v.Message = MsgQRPending
	case structs.StateProgress:
		v.QRStatus = metaString(j.Progress.Meta, weibo.MetaQRStatus)
		if v.QRStatus == "" {
			v.QRStatus = weibostructs.QRWaiting
		}
		v.QRCode = metaString(j.Progress.Meta, weibo.MetaQRCode)
		v.Message = j.Progress.Message
		if v.Message == "" {
			v.Message = MsgRunning
		}
	case structs.StateSuccess:
		var res weibostructs.LoginResult
		if err := json.Unmarshal(j.Result, &res); err == nil {
			v.UserInfo = res.UserInfo
			v.Message = res.Message
		}
		v.QRStatus = weibostructs.QRConfirmed
		if v.Message == "" {
			v.Message = MsgCompleted
		}
	case structs.StateFailure:
		v.QRStatus = weibostructs.QRError
		v.Message = MsgFailed
		v.Error = j.Error
	case structs.StateRevoked:
		v.QRStatus = weibostructs.QRError
		v.Message = MsgCancelled
	}
	return v
}

func metaString(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
