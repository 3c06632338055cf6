package observes

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/logging/logger"
)

// ProviderSet is the wire provider set for error reporting and tracing.
var ProviderSet = wire.NewSet(ProvideTelemetry)

const shutdownTimeout = 5 * time.Second

// Telemetry marks that error reporting and tracing are set up.
type Telemetry struct {
	Tracing   bool
	Reporting bool
}

// ProvideTelemetry sets up sentry and the tracer from cfg. The cleanup
// function flushes both.
func ProvideTelemetry(cfg *config.Config) (*Telemetry, func(), error) {
	ctx := context.Background()

	flush, err := NewSentry(cfg.Observes.Sentry, cfg.AppName)
	if err != nil {
		return nil, nil, err
	}
	shutdown, err := NewTracer(ctx, cfg.Observes.Tracer, cfg.AppName, cfg.Environment)
	if err != nil {
		flush()
		return nil, nil, err
	}

	t := &Telemetry{
		Tracing:   cfg.Observes.Tracer.Endpoint != "",
		Reporting: cfg.Observes.Sentry.Endpoint != "",
	}
	cleanup := func() {
		sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn(sctx, "failed to shut down tracer", "error", err)
		}
		flush()
	}
	return t, cleanup, nil
}
