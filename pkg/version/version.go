// Package version is stamped at build time with
// -ldflags "-X github.com/charlie0129/vnacal/pkg/version.Version=...".
package version

var (
	Version   = "UNKNOWN"
	GitCommit = "UNKNOWN"
)
