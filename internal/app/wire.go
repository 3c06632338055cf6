//go:build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/internal/server"
	"github.com/ncobase/weibo-agent/job"
	"github.com/ncobase/weibo-agent/job/data"
	"github.com/ncobase/weibo-agent/job/handler"
	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/observes"
	"github.com/ncobase/weibo-agent/weibo"
	"github.com/ncobase/weibo-agent/weibo/automation"
)

// InitializeApp wires the application from the installed configuration.
// The cleanup function stops workers and releases every backend.
func InitializeApp() (*App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		logger.ProviderSet,
		observes.ProviderSet,
		data.ProviderSet,
		automation.ProviderSet,
		weibo.ProviderSet,
		job.ProviderSet,
		handler.ProviderSet,
		server.ProviderSet,
		NewApp,
	))
}
