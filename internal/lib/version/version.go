package version

// VERSION is set at build time via -ldflags.
var VERSION = "dev"

// IsRelease reports whether the binary was built from a tagged release.
func IsRelease() bool {
	return VERSION != "" && VERSION != "dev"
}
