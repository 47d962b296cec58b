// Package version exposes the build version, set at link time with
// -ldflags "-X github.com/rshade/synthsales/pkg/version.version=v1.2.3".
package version

//nolint:gochecknoglobals // set by the linker
var (
	version   = "dev"
	gitCommit = ""
)

// GetVersion returns the build version.
func GetVersion() string {
	return version
}

// GetFullVersion returns the version with the short commit, when known.
func GetFullVersion() string {
	if gitCommit == "" {
		return version
	}
	commit := gitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return version + " (" + commit + ")"
}
