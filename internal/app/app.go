// Package app assembles the weibo agent from its components.
package app

import (
	"context"
	"errors"

	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/internal/server"
	"github.com/ncobase/weibo-agent/job"
	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/observes"
)

// ErrSharedQueueRequired is returned when standalone workers are started on
// process local queue backends.
var ErrSharedQueueRequired = errors.New("worker mode needs a shared broker and store (redis or rabbitmq)")

// App is the assembled agent.
type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	Telemetry *observes.Telemetry
	Manager   *job.Manager
	Server    *server.Server
}

// NewApp creates the application.
func NewApp(cfg *config.Config, log *logger.Logger, t *observes.Telemetry, m *job.Manager, srv *server.Server) *App {
	return &App{
		Config:    cfg,
		Logger:    log,
		Telemetry: t,
		Manager:   m,
		Server:    srv,
	}
}

// Serve runs the API until ctx ends. With embedded set, the process also
// works every lane.
func (a *App) Serve(ctx context.Context, embedded bool) error {
	if embedded {
		if err := a.Manager.Start(); err != nil {
			return err
		}
	} else if !a.Config.Queue.Distributed() {
		a.Logger.Warn(ctx, "no embedded workers and a process local queue, jobs will never run")
	}
	return a.Server.Run(ctx)
}

// Work runs workers for lanes until ctx ends.
func (a *App) Work(ctx context.Context, lanes ...structs.Lane) error {
	if !a.Config.Queue.Distributed() {
		return ErrSharedQueueRequired
	}
	if err := a.Manager.Start(lanes...); err != nil {
		return err
	}
	a.Logger.Info(ctx, "worker running", "lanes", lanes)
	<-ctx.Done()
	a.Logger.Info(ctx, "worker stopping")
	return nil
}
