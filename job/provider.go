package job

import (
	"context"

	"github.com/google/wire"
	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/job/data"
	"github.com/ncobase/weibo-agent/weibo"
)

// ProviderSet is the wire provider set for the job manager.
var ProviderSet = wire.NewSet(ProvideManager, ProvideAccountStore)

// ProvideAccountStore shares the weibo session between worker processes
// when jobs live in redis. It returns nil otherwise.
func ProvideAccountStore(d *data.Data) weibo.AccountStore {
	if a := d.Accounts(); a != nil {
		return a
	}
	return nil
}

// ProvideManager creates a manager serving the weibo job kinds. Lanes are
// not started; the cleanup function stops any that were.
func ProvideManager(cfg *config.Queue, d *data.Data, s *weibo.Session) (*Manager, func()) {
	m := NewManager(cfg, d)
	RegisterWeiboHandlers(m, s)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HardTimeLimit)
		defer cancel()
		m.Stop(ctx)
	}
	return m, cleanup
}
