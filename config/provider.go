package config

import (
	"github.com/google/wire"
	lc "github.com/ncobase/weibo-agent/logging/logger/config"
)

// ProviderSet is the wire provider set for the config package.
// It provides the main *Config and extracts sub-configurations for
// other modules to use.
var ProviderSet = wire.NewSet(
	GetConfig,
	ProvideLoggerConfig,
	ProvideQueueConfig,
	ProvideWeiboConfig,
)

// ProvideLoggerConfig provides the logger configuration.
func ProvideLoggerConfig(cfg *Config) *lc.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Logger
}

// ProvideQueueConfig provides the queue configuration.
func ProvideQueueConfig(cfg *Config) *Queue {
	if cfg == nil {
		return nil
	}
	return cfg.Queue
}

// ProvideWeiboConfig provides the weibo automation configuration.
func ProvideWeiboConfig(cfg *Config) *Weibo {
	if cfg == nil {
		return nil
	}
	return cfg.Weibo
}
