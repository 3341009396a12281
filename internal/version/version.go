// Package version exposes build metadata stamped in via ldflags.
package version

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
