// Package build provides version and build information for changecast.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// UserAgent returns the User-Agent header sent on outbound HTTP requests.
func UserAgent() string {
	return "changecast/" + Version + " (+https://github.com/ariel-frischer/changecast)"
}
