package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	major, minor, patch, pre, meta := Major, Minor, Patch, PreRelease, BuildMetadata
	defer func() {
		Major, Minor, Patch, PreRelease, BuildMetadata = major, minor, patch, pre, meta
	}()

	testCases := []struct {
		name                string
		major, minor, patch int
		pre, meta           string
		want                string
	}{
		{"release", 1, 2, 3, "", "", "1.2.3"},
		{"pre-release", 1, 0, 0, "rc.1", "", "1.0.0-rc.1"},
		{"build metadata", 0, 4, 1, "", "abc123", "0.4.1+abc123"},
		{"unset falls back", 0, 0, 0, "", "", Version},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			Major, Minor, Patch, PreRelease, BuildMetadata = tc.major, tc.minor, tc.patch, tc.pre, tc.meta
			if got := String(); got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestGetVersionInfo(t *testing.T) {
	commit := GitCommit
	defer func() { GitCommit = commit }()

	GitCommit = "deadbeef"
	info := GetVersionInfo()

	for _, want := range []string{"mdserve version 0.1.0", "Git commit: deadbeef", "Go version: ", "Platform: "} {
		if !strings.Contains(info, want) {
			t.Errorf("Version info missing %q:\n%s", want, info)
		}
	}
	if strings.Contains(info, "Build date") {
		t.Errorf("Build date should be omitted when unset:\n%s", info)
	}
}
