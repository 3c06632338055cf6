// Package observes sets up error reporting and tracing exporters.
package observes

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/ncobase/weibo-agent/config"
)

const sentryFlushTimeout = 2 * time.Second

// NewSentry initializes the sentry client. Without a DSN it does nothing.
// The returned function flushes buffered events.
func NewSentry(cfg *config.Sentry, name string) (func(), error) {
	if cfg == nil || cfg.Endpoint == "" {
		return func() {}, nil
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Endpoint,
		AttachStacktrace: true,
		TracesSampleRate: rate,
		ServerName:       name,
		Release:          cfg.Release,
		Environment:      cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init sentry: %w", err)
	}

	return func() { sentry.Flush(sentryFlushTimeout) }, nil
}
