package weibo

import (
	"github.com/google/wire"
	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/weibo/automation"
)

// ProviderSet is the wire provider set for the account session.
var ProviderSet = wire.NewSet(ProvideSession)

// ProvideSession creates the session, shared through store when it is set.
func ProvideSession(cfg *config.Weibo, browser automation.Automator, llm automation.Completer, store AccountStore) (*Session, error) {
	return NewSession(cfg, browser, llm, WithAccountStore(store))
}
