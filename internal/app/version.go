package app

import "fmt"

// Build metadata, injected with ldflags:
//
//	go build -ldflags "-X github.com/flatmarket/backend/internal/app.Version=1.2.0 \
//	  -X github.com/flatmarket/backend/internal/app.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion formats the build metadata for startup logs and the health
// endpoint.
func BuildVersion() string {
	if Commit == "unknown" && BuildTime == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)
}
