package version

// Version is the current slate release.
const Version = "0.3.0"

// BuildVersion returns the version string for display.
func BuildVersion() string {
	return "slate version " + Version
}

// APIVersion returns the bare version number for API responses.
func APIVersion() string {
	return Version
}
