// Package buildinfo holds version information stamped in at link time:
//
//	go build -ldflags "-X github.com/worldmaking/gotlib/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/worldmaking/gotlib/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/worldmaking/gotlib/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/got
package buildinfo

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"

	// Commit is the git revision the binary was built from.
	Commit = "none"

	// Date is the UTC build time.
	Date = "unknown"
)

// String returns the three build fields, one per line.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns a cobra version template naming the command.
func Template() string {
	return "{{.Name}} " + Version + "\n" + fmt.Sprintf("commit: %s\nbuilt: %s\n", Commit, Date)
}
