package semver

import (
	"fmt"
	"regexp"
	"strconv"
)

// Semver is a simple semantic version compatible with the version info the
// daemon's JSON-RPC server advertises.
type Semver struct {
	Major uint32
	Minor uint32
	Patch uint32
}

var semverRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

// NewSemver creates a new Semver
func NewSemver(major, minor, patch uint32) Semver {
	return Semver{Major: major, Minor: minor, Patch: patch}
}

// Parse parses a plain major.minor.patch version string
func Parse(version string) (Semver, error) {
	matches := semverRegex.FindStringSubmatch(version)
	if matches == nil {
		return Semver{}, fmt.Errorf("invalid semantic version: %s", version)
	}

	major, _ := strconv.ParseUint(matches[1], 10, 32)
	minor, _ := strconv.ParseUint(matches[2], 10, 32)
	patch, _ := strconv.ParseUint(matches[3], 10, 32)

	return NewSemver(uint32(major), uint32(minor), uint32(patch)), nil
}

// String returns the string representation
func (s Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", s.Major, s.Minor, s.Patch)
}

// Compatible checks if nodeVer is compatible with required.
// Compatibility is based on major version only (semver rules).
func Compatible(required, nodeVer Semver) bool {
	return required.Major == nodeVer.Major
}

// AnyCompatible checks if nodeVer is compatible with any of the given versions
func AnyCompatible(compatible []Semver, nodeVer Semver) bool {
	for _, v := range compatible {
		if Compatible(v, nodeVer) {
			return true
		}
	}
	return false
}
