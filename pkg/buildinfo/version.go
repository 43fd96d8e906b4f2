// Package buildinfo holds version information injected at build time:
//
//	go build -ldflags "-X github.com/matzehuels/clishot/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/clishot/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/clishot/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// UserAgent identifies clishot when downloading remote images.
func UserAgent() string {
	return "clishot/" + Version + " (+https://github.com/matzehuels/clishot)"
}
