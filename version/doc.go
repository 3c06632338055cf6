// Package version reports build metadata of the weibo-agent binary.
//
// Values are injected with ldflags:
//
//	go build -ldflags "\
//	  -X github.com/ncobase/weibo-agent/version.Version=1.2.3 \
//	  -X github.com/ncobase/weibo-agent/version.Branch=main \
//	  -X github.com/ncobase/weibo-agent/version.Revision=abc123 \
//	  -X 'github.com/ncobase/weibo-agent/version.BuiltAt=$(date)'"
//
// Without ldflags the VCS stamp embedded by the go tool is used for the
// revision and build time.
package version
