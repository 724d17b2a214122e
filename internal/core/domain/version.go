package domain

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
)

// versionPattern finds semver-shaped substrings; candidates are confirmed by strict parsing.
var versionPattern = regexp.MustCompile(
	`(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.\-]+)?(?:\+[0-9A-Za-z.\-]+)?`,
)

// Version is a semantic version together with the place it was found.
//
// The zero Version is invalid and sorts before every parsed version.
type Version struct {
	sv *semver.Version

	// Location is a filesystem path (directory or .zip) or an HTTP(S) URL. It may be empty.
	Location string
}

// ParseVersion parses a strict semantic version string.
func ParseVersion(s string) (Version, error) {
	sv, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, errors.Join(
			ErrInvalidVersion,
			zerr.With(zerr.Wrap(err, "failed to parse version"), "version", s),
		)
	}
	return Version{sv: sv}, nil
}

// MustParseVersion is like ParseVersion but panics on invalid input.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FindVersion returns the first semantic version embedded in s.
func FindVersion(s string) (Version, bool) {
	for _, loc := range versionPattern.FindAllStringIndex(s, -1) {
		candidate := s[loc[0]:loc[1]]
		// "1.2.3-rc." and similar leave a dangling separator behind.
		for candidate != "" {
			if v, err := ParseVersion(candidate); err == nil {
				return v, true
			}
			trimmed := strings.TrimRight(candidate, ".-+")
			if trimmed == candidate {
				break
			}
			candidate = trimmed
		}
	}
	return Version{}, false
}

// WithLocation returns a copy of v located at loc.
func (v Version) WithLocation(loc string) Version {
	v.Location = loc
	return v
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return v.sv == nil
}

// Major returns the major component.
func (v Version) Major() uint64 {
	if v.sv == nil {
		return 0
	}
	return v.sv.Major()
}

// Minor returns the minor component.
func (v Version) Minor() uint64 {
	if v.sv == nil {
		return 0
	}
	return v.sv.Minor()
}

// Patch returns the patch component.
func (v Version) Patch() uint64 {
	if v.sv == nil {
		return 0
	}
	return v.sv.Patch()
}

// Prerelease returns the prerelease component without the leading hyphen.
func (v Version) Prerelease() string {
	if v.sv == nil {
		return ""
	}
	return v.sv.Prerelease()
}

// Build returns the build metadata without the leading plus sign.
func (v Version) Build() string {
	if v.sv == nil {
		return ""
	}
	return v.sv.Metadata()
}

// String returns the version string exactly as parsed.
func (v Version) String() string {
	if v.sv == nil {
		return ""
	}
	return v.sv.Original()
}

// MajorMinor returns "MAJOR.MINOR", the name of the directory grouping a version line.
func (v Version) MajorMinor() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// SameMajorMinor reports whether v and other belong to the same version line.
func (v Version) SameMajorMinor(other Version) bool {
	return v.Major() == other.Major() && v.Minor() == other.Minor()
}

// DownloadRequired reports whether the location is an HTTP(S) URL.
func (v Version) DownloadRequired() bool {
	return IsURL(v.Location)
}

// IsArchive reports whether the location is a zip archive. Remote URLs always point at archives.
func (v Version) IsArchive() bool {
	if v.Location == "" {
		return false
	}
	return v.DownloadRequired() || strings.HasSuffix(strings.ToLower(v.Location), ArchiveExt)
}

// IsDir reports whether the location is an unpacked directory.
func (v Version) IsDir() bool {
	return v.Location != "" && !v.IsArchive()
}

// Equal compares semantic versions and ignores location.
func (v Version) Equal(other Version) bool {
	return v.compareSemver(other) == 0
}

// Compare orders by semantic version, then prefers a located version over an unlocated one,
// then a directory over an archive.
func (v Version) Compare(other Version) int {
	if c := v.compareSemver(other); c != 0 {
		return c
	}
	return v.locationRank() - other.locationRank()
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Key identifies a version by its location, or by its version string when unlocated.
func (v Version) Key() string {
	if v.Location != "" {
		return v.Location
	}
	return v.String()
}

func (v Version) compareSemver(other Version) int {
	switch {
	case v.sv == nil && other.sv == nil:
		return 0
	case v.sv == nil:
		return -1
	case other.sv == nil:
		return 1
	}
	return v.sv.Compare(other.sv)
}

func (v Version) locationRank() int {
	switch {
	case v.Location == "":
		return 0
	case v.IsArchive():
		return 1
	default:
		return 2
	}
}

// SortVersions sorts vs in ascending order.
func SortVersions(vs []Version) {
	slices.SortStableFunc(vs, func(a, b Version) int {
		return a.Compare(b)
	})
}

// MaxVersion returns the greatest version. On ties the earliest argument wins.
func MaxVersion(vs ...Version) (Version, bool) {
	var best Version
	found := false
	for _, v := range vs {
		if v.IsZero() {
			continue
		}
		if !found || v.Compare(best) > 0 {
			best = v
			found = true
		}
	}
	return best, found
}

// IsURL reports whether s is an HTTP(S) URL.
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
