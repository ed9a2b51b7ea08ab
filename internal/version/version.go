package version

// Version is the version of the forecast binary, set at build time with
// -ldflags "-X github.com/rxtech-lab/argo-forecast/internal/version.Version=v0.4.0".
// "main" marks a development build.
var Version = "v0.4.0"

// GetVersion returns the current version.
func GetVersion() string {
	return Version
}
