// Package version provides build-time version information for pwharness.
// These variables are set at build time via -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build-time variables set via ldflags
var (
	// Version is the semantic version or branch name if not a tagged build
	Version = "dev"

	// GitCommit is the short git commit SHA
	GitCommit = "unknown"

	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// Info contains structured version information.
type Info struct {
	Version    string `json:"version" yaml:"version"`
	GitCommit  string `json:"git_commit" yaml:"git_commit"`
	BuildDate  string `json:"build_date" yaml:"build_date"`
	GoVersion  string `json:"go_version" yaml:"go_version"`
	Playwright string `json:"playwright" yaml:"playwright"`
}

// GetInfo returns the current version info.
func GetInfo() Info {
	return Info{
		Version:    Version,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Playwright: playwrightVersion(),
	}
}

// playwrightVersion reports the playwright-go module linked into the binary.
func playwrightVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range bi.Deps {
		if dep.Path == "github.com/playwright-community/playwright-go" {
			return dep.Version
		}
	}
	return "unknown"
}

// String returns a human-readable version string, e.g. "v0.3.0 (abc1234)".
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}

// Full returns the full version string with all details.
func Full() string {
	i := GetInfo()
	return fmt.Sprintf("%s (%s) built %s with %s, playwright-go %s", i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Playwright)
}
