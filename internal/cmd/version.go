package cmd

// version is set at build time using -ldflags.
var version = "dev"

// Version returns the build version of the running binary.
func Version() string {
	return version
}

// SetVersion overrides the build version.
// Intended for the main package to propagate -ldflags values.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
