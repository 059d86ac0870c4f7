package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the version string set by ldflags.
	Version = "dev"

	// Commit is the git commit hash set by ldflags.
	Commit = "unknown"

	// Date is the build date set by ldflags.
	Date = "unknown"
)

// String returns the formatted version string.
func String() string {
	return fmt.Sprintf("tubetone %s (%s) built on %s", Version, Commit, Date)
}

// UserAgent is sent with outgoing HTTP requests.
func UserAgent() string {
	return fmt.Sprintf("tubetone/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

// Info returns detailed version information.
func Info() string {
	return fmt.Sprintf(`tubetone - YouTube music in the terminal
Version: %s
Commit: %s
Built: %s
Go: %s
OS/Arch: %s/%s`, Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
