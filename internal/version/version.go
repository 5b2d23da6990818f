// Package version holds build-time version information for the pressplug
// binary. The variables are injected via -ldflags:
//
// -X github.com/ferro-labs/pressplug/internal/version.Version=v0.3.0
// -X github.com/ferro-labs/pressplug/internal/version.Commit=abc1234
// -X github.com/ferro-labs/pressplug/internal/version.Date=2026-10-01T00:00:00Z
//
// so local builds without ldflags still produce sensible output.
package version

import (
	"fmt"

	"github.com/ferro-labs/pressplug/plugin"
)

// Variables set at link time. Default to dev values.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns a single-line human-readable version string, e.g.:
//
// v0.3.0 (commit abc1234, built 2026-10-01T00:00:00Z, schema 1)
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s, schema %d)", Version, Commit, Date, plugin.SchemaVersion)
}

// Short returns just the version tag, e.g. "v0.3.0" or "dev".
func Short() string {
	return Version
}
