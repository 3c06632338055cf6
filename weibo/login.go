package weibo

import (
	"context"
	"fmt"
	"strings"

	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/weibo/extract"
	"github.com/ncobase/weibo-agent/weibo/structs"
)

// Progress meta keys of a QR login.
const (
	MetaQRCode      = "qr_code"
	MetaQRStatus    = "qr_status"
	MetaAttempt     = "attempt"
	MetaMaxAttempts = "max_attempts"
	MetaLoginMethod = "login_method"
	MetaWarning     = "warning"
	MetaUsername    = "username"
)

const unreadableQRWarning = "qr code could not be read from the automation output"

// qrCheck is one parsed status check.
type qrCheck struct {
	status   string
	userInfo structs.UserInfo
	message  string
	err      string
}

// LoginQR generates a login QR code and polls its status until the user
// confirms, the code expires or the poll budget is spent. Every poll emits
// an event whose meta carries the QR code and status.
func (s *Session) LoginQR(ctx context.Context, events chan<- Event) (*structs.LoginResult, error) {
	emit(ctx, events, Event{Message: "generating login qr code"})

	raw, err := s.run(ctx, "qr_generate", qrGeneratePrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQRGeneration, err)
	}

	code, status, warning := "", structs.QRWaiting, ""
	rec, perr := extract.Extract(raw)
	if perr != nil {
		logger.Warn(ctx, "qr generation output unreadable, polling anyway", "error", perr)
		warning = unreadableQRWarning
	} else {
		code = rec.String("qr_code", "")
		status = normalizeQRStatus(rec.String("qr_status", structs.QRWaiting))
		if code == "" && !rec.Bool("success", false) {
			return nil, fmt.Errorf("%w: %s", ErrQRGeneration, rec.String("error", "no qr code returned"))
		}
		if status == structs.QRConfirmed {
			return s.confirmQR(ctx, rec.StringMap("user_info"))
		}
	}

	maxPolls := s.cfg.QRMaxPolls
	meta := func(status string, attempt int) map[string]any {
		m := map[string]any{
			MetaQRCode:      code,
			MetaQRStatus:    status,
			MetaLoginMethod: structs.LoginMethodQR,
			MetaAttempt:     attempt,
			MetaMaxAttempts: maxPolls,
		}
		if warning != "" {
			m[MetaWarning] = warning
		}
		return m
	}

	emit(ctx, events, Event{Message: "scan the qr code with the weibo app", Meta: meta(status, 0)})

	for attempt := 1; attempt <= maxPolls; attempt++ {
		if err := sleep(ctx, s.cfg.QRPollInterval); err != nil {
			return nil, err
		}

		check := s.checkQR(ctx)
		if err := ctx.Err(); err != nil {
			return nil, context.Cause(ctx)
		}
		emit(ctx, events, Event{Message: "qr status: " + check.status, Meta: meta(check.status, attempt)})

		switch check.status {
		case structs.QRConfirmed:
			return s.confirmQR(ctx, check.userInfo)
		case structs.QRExpired:
			return nil, ErrQRExpired
		case structs.QRError:
			msg := check.err
			if msg == "" {
				msg = check.message
			}
			if msg == "" {
				return nil, ErrQRLogin
			}
			return nil, fmt.Errorf("%w: %s", ErrQRLogin, msg)
		}
	}

	return nil, ErrQRTimeout
}

// checkQR asks for the current QR status. A delegate that keeps failing is
// reported as still waiting; an unreadable answer is an error status.
func (s *Session) checkQR(ctx context.Context) qrCheck {
	raw, err := s.run(ctx, "qr_check", qrCheckPrompt)
	if err != nil {
		logger.Warn(ctx, "qr status check failed", "error", err)
		return qrCheck{status: structs.QRWaiting}
	}
	rec, err := extract.Extract(raw)
	if err != nil {
		return qrCheck{status: structs.QRError, err: "failed to parse qr status: " + err.Error()}
	}
	return qrCheck{
		status:   normalizeQRStatus(rec.String("qr_status", structs.QRWaiting)),
		userInfo: rec.StringMap("user_info"),
		message:  rec.String("message", ""),
		err:      rec.String("error", ""),
	}
}

func (s *Session) confirmQR(ctx context.Context, info structs.UserInfo) (*structs.LoginResult, error) {
	if err := s.markLoggedIn(ctx, info); err != nil {
		return nil, err
	}
	logger.Info(ctx, "qr login confirmed", "nickname", info.Nickname())
	return &structs.LoginResult{
		Success:     true,
		UserInfo:    s.UserInfo(),
		Message:     "qr login succeeded",
		LoginMethod: structs.LoginMethodQR,
	}, nil
}

// LoginPassword logs in with credentials in a single delegated call.
func (s *Session) LoginPassword(ctx context.Context, username, password string, events chan<- Event) (*structs.LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	emit(ctx, events, Event{
		Message: "logging in with password",
		Meta:    map[string]any{MetaLoginMethod: structs.LoginMethodPassword, MetaUsername: username},
	})

	raw, err := s.run(ctx, "password_login", passwordLoginTask(username, password))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	rec, err := extract.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse login result: %w", ErrLoginFailed, err)
	}
	if !rec.Bool("success", false) {
		return nil, fmt.Errorf("%w: %s", ErrLoginFailed, rec.String("error", "password login rejected"))
	}

	if err := s.markLoggedIn(ctx, rec.StringMap("user_info")); err != nil {
		return nil, err
	}
	logger.Info(ctx, "password login succeeded", "username", username)

	return &structs.LoginResult{
		Success:     true,
		UserInfo:    s.UserInfo(),
		Message:     "password login succeeded",
		LoginMethod: structs.LoginMethodPassword,
		Username:    username,
	}, nil
}

func normalizeQRStatus(s string) string {
	if v := strings.ToLower(strings.TrimSpace(s)); v != "" {
		return v
	}
	return structs.QRWaiting
}
