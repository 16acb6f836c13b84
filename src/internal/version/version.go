// FILE: logsproxy/src/internal/version/version.go
package version

import "fmt"

var (
	// Version is set at compile time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Returns a formatted version string
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}

// Returns just the version tag
func Short() string {
	return Version
}

// UserAgent returns the product token sent upstream, optionally followed by
// the caller's own user agent.
func UserAgent(inbound string) string {
	if inbound == "" {
		return "logsproxy/" + Version
	}
	return fmt.Sprintf("logsproxy/%s %s", Version, inbound)
}
