package data

import (
	"context"

	"github.com/google/wire"
	"github.com/ncobase/weibo-agent/config"
)

// ProviderSet is the wire provider set for the job data layer.
var ProviderSet = wire.NewSet(ProvideData)

// ProvideData connects the backends selected by the queue configuration.
func ProvideData(cfg *config.Config) (*Data, func(), error) {
	return New(context.Background(), cfg.Data, cfg.Queue)
}
