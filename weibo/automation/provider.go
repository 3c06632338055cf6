package automation

import (
	"github.com/google/wire"
	"github.com/ncobase/weibo-agent/config"
)

// ProviderSet is the wire provider set for the automation clients.
var ProviderSet = wire.NewSet(
	ProvideBrowserClient,
	ProvideChatCompleter,
	wire.Bind(new(Automator), new(*BrowserClient)),
	wire.Bind(new(Completer), new(*ChatCompleter)),
)

// ProvideBrowserClient provides the browser automation client.
func ProvideBrowserClient(cfg *config.Config) *BrowserClient {
	return NewBrowserClient(cfg.Automation, cfg.LLM)
}

// ProvideChatCompleter provides the LLM completer.
func ProvideChatCompleter(cfg *config.Config) *ChatCompleter {
	return NewChatCompleter(cfg.LLM)
}
