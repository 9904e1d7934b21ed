package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Version information
var (
	// Major version component
	Major = 0
	// Minor version component
	Minor = 1
	// Patch version component
	Patch = 0
	// Pre-release version component
	PreRelease = ""
	// Build metadata
	BuildMetadata = ""
	// Version in string format - set dynamically at build time
	Version = "0.1.0"
	// GitCommit is the git commit that was compiled - set dynamically at build time
	GitCommit = ""
	// BuildDate is the date of the build - set dynamically at build time
	BuildDate = ""
	// GoVersion is the version of go used to compile
	GoVersion = runtime.Version()
	// Platform is the operating system and architecture combination
	Platform = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	// Name of the application
	AppName = "mdserve"
	// Description of the application
	Description = "Serve or build a directory of Markdown documents as HTML"
)

// String returns the semantic version built from its components, falling
// back to Version when Major, Minor and Patch are unset
func String() string {
	if Major == 0 && Minor == 0 && Patch == 0 {
		return Version
	}
	v := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if PreRelease != "" {
		v += "-" + PreRelease
	}
	if BuildMetadata != "" {
		v += "+" + BuildMetadata
	}
	return v
}

// GetVersionInfo returns a multi-line version banner with build information
func GetVersionInfo() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s version %s", AppName, String())
	if GitCommit != "" {
		fmt.Fprintf(&b, "\nGit commit: %s", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, "\nBuild date: %s", BuildDate)
	}
	fmt.Fprintf(&b, "\nGo version: %s", GoVersion)
	fmt.Fprintf(&b, "\nPlatform: %s", Platform)

	return b.String()
}
