package logger

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// SentryHook forwards error level entries to the current sentry hub.
type SentryHook struct {
	levels  []logrus.Level
	timeout time.Duration
}

// NewSentryHook creates a hook for error, fatal and panic levels.
func NewSentryHook() *SentryHook {
	return &SentryHook{
		levels:  []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel},
		timeout: 2 * time.Second,
	}
}

// Levels implements logrus.Hook.
func (h *SentryHook) Levels() []logrus.Level {
	return h.levels
}

// Fire implements logrus.Hook. It is a no-op while sentry is not initialized.
func (h *SentryHook) Fire(entry *logrus.Entry) error {
	hub := sentry.CurrentHub()
	if hub == nil || hub.Client() == nil {
		return nil
	}

	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range entry.Data {
			scope.SetExtra(k, v)
		}
		if traceID, ok := entry.Data[traceKey].(string); ok {
			scope.SetTag(traceKey, traceID)
		}
		if taskID, ok := entry.Data[taskKey].(string); ok {
			scope.SetTag(taskKey, taskID)
		}
		msg := entry.Message
		if errText, ok := entry.Data["error"].(string); ok && errText != "" {
			msg = msg + ": " + errText
		}
		hub.CaptureException(errors.New(msg))
	})

	if entry.Level <= logrus.FatalLevel {
		sentry.Flush(h.timeout)
	}
	return nil
}
