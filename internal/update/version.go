package update

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// One optional leading marker ("v", "V", "r"...), then 2-4 numeric components
var versionRegex = regexp.MustCompile(`^[^0-9]?(\d+)\.(\d+)(?:\.(\d+))?(?:\.(\d+))?$`)

// Version is a dotted numeric version, missing components are zero
type Version struct {
	Major int
	Minor int
	Patch int
	Build int
}

// ZeroVersion is the sentinel for unknown or unparsable versions
var ZeroVersion = Version{}

// ParseVersion parses a dotted version string
// Supports formats like "3.2", "3.2.1", "v3.2.1", "3.2.1.4"
func ParseVersion(s string) (Version, error) {
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return ZeroVersion, fmt.Errorf("invalid version format: %q", s)
	}

	var parts [4]int
	for i, m := range matches[1:] {
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			return ZeroVersion, fmt.Errorf("invalid version component %q: %w", m, err)
		}
		parts[i] = n
	}

	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2], Build: parts[3]}, nil
}

// ParseVersionLenient parses s and returns ZeroVersion when it cannot
func ParseVersionLenient(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		return ZeroVersion
	}
	return v
}

// String returns the dotted form, omitting a zero build component
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Build != 0 {
		s += fmt.Sprintf(".%d", v.Build)
	}
	return s
}

// Human returns the display form, e.g. "v3.2.1"
func (v Version) Human() string {
	return "v" + v.String()
}

// IsZero reports whether v is the unknown sentinel
func (v Version) IsZero() bool {
	return v == ZeroVersion
}

// Compare compares two versions
// Returns:
//   - 1 if v > other
//   - 0 if v == other
//   - -1 if v < other
func (v Version) Compare(other Version) int {
	a := [4]int{v.Major, v.Minor, v.Patch, v.Build}
	b := [4]int{other.Major, other.Minor, other.Patch, other.Build}
	for i := range a {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// IsGreaterThan returns true if v > other
func (v Version) IsGreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// IsLessThan returns true if v < other
func (v Version) IsLessThan(other Version) bool {
	return v.Compare(other) < 0
}

// IsEqual returns true if v == other
func (v Version) IsEqual(other Version) bool {
	return v.Compare(other) == 0
}
