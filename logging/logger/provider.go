package logger

import (
	"github.com/google/wire"
	"github.com/ncobase/weibo-agent/logging/logger/config"
)

var ProviderSet = wire.NewSet(ProvideLogger)

// ProvideLogger configures the process-wide logger from cfg. The returned
// cleanup flushes and closes the log file.
func ProvideLogger(cfg *config.Config) (*Logger, func(), error) {
	cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return StdLogger(), cleanup, nil
}
