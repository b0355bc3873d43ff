// Package version exposes build metadata set via -ldflags.
package version

var (
	// Version is the semantic version of the build.
	Version = "0.3.0-dev"

	// Commit is the git commit the binary was built from.
	Commit = "unknown"
)
