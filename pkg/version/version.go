// Package version holds build-time identity for the remotedbg binaries.
package version

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/tracewell/remotedbg/pkg/version.Version=v1.0.0 \
//	  -X github.com/tracewell/remotedbg/pkg/version.GitCommit=abc1234 \
//	  -X github.com/tracewell/remotedbg/pkg/version.BuildDate=2026-01-01"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a single-line human-readable version string.
func Info() string {
	return fmt.Sprintf("remotedbg %s (%s) built %s", Version, GitCommit, BuildDate)
}
