package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a plain X.Y.Z semantic version.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Parse parses a version string in the format "X.Y.Z"
func Parse(versionStr string) (Version, error) {
	parts := strings.Split(versionStr, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version format: expected X.Y.Z, got %s", versionStr)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version: %w", err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor version: %w", err)
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return Version{}, fmt.Errorf("invalid patch version: %w", err)
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// ParseTag parses a release tag, tolerating the common "v" prefix
// (e.g. "v1.2.3" and "1.2.3" both parse).
func ParseTag(tag string) (Version, error) {
	return Parse(strings.TrimPrefix(strings.TrimSpace(tag), "v"))
}

// IsSemverTag reports whether the tag looks like a semantic version.
// Used for summary output only; release detection never depends on it.
func IsSemverTag(tag string) bool {
	_, err := ParseTag(tag)
	return err == nil
}

func (v Version) LessThan(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}
