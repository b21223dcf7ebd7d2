package update

import (
	"fmt"
	"runtime"
)

// platformTags maps an OS to the suffix of its release asset. Windows and
// linux publish x64 builds only, which arm64 hosts run under emulation.
var platformTags = map[string]string{
	"windows": "win-x64.zip",
	"linux":   "linux-x64.zip",
	"darwin":  "osx-x64.zip",
}

// darwinArm64Tag is the only architecture-specific build
const darwinArm64Tag = "osx-arm64.zip"

// Detect returns the current platform (OS and architecture)
func Detect() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// Tag returns the asset name suffix for this platform
// e.g., "linux-x64.zip"
func (p Platform) Tag() (string, error) {
	tag, ok := platformTags[p.OS]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, p.OS, p.Arch)
	}
	if p.OS == "darwin" && p.Arch == "arm64" {
		return darwinArm64Tag, nil
	}
	return tag, nil
}

// IsSupported returns true if this platform has published builds
func (p Platform) IsSupported() bool {
	_, ok := platformTags[p.OS]
	return ok
}

// IsWindows returns true for windows platforms
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}

// ExecutableName appends the platform's executable suffix to base
func (p Platform) ExecutableName(base string) string {
	if p.IsWindows() {
		return base + ".exe"
	}
	return base
}

// String returns "os/arch"
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}
