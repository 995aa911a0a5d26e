// Package version provides version information for the pharaoh CLI.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
var (
	// Version is the CLI version (set via ldflags).
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// CUESDKVersion is the version of the CUE SDK used for settings validation.
const CUESDKVersion = "v0.15.4"

// Info contains version information.
type Info struct {
	// Version is the CLI version (set via ldflags).
	Version string `json:"version"`

	// GitCommit is the git commit hash.
	GitCommit string `json:"gitCommit"`

	// BuildDate is the build timestamp.
	BuildDate string `json:"buildDate"`

	// GoVersion is the Go version used to build.
	GoVersion string `json:"goVersion"`

	// Platform is GOOS/GOARCH of the binary.
	Platform string `json:"platform"`

	// CUESDKVersion is the CUE SDK version (embedded at build time).
	CUESDKVersion string `json:"cueSDKVersion"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:       Version,
		GitCommit:     GitCommit,
		BuildDate:     BuildDate,
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		CUESDKVersion: CUESDKVersion,
	}
}

// Short returns a one-line summary, e.g. "Pharaoh v1.0.0 [go1.25.0, linux/amd64]".
func (i Info) Short() string {
	return fmt.Sprintf("Pharaoh %s [%s, %s]", i.Version, i.GoVersion, i.Platform)
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("pharaoh version %s\n  Commit:    %s\n  Built:     %s\n  Go:        %s\n  Platform:  %s\n  CUE SDK:   %s",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform, i.CUESDKVersion)
}
