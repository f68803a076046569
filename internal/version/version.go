// Package version exposes the build version injected at link time.
package version

// version is set via -ldflags at build time; see the magefile Build target.
var version = "v0.0.0"

// Value returns the version string for this build.
func Value() string {
	return version
}
