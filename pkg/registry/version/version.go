// Package version resolves the newest version-like tag published for a repository.
//
// The result is advisory display data: update decisions are made from digests only.
package version

import (
	"regexp"
	"strings"
)

// versionTagPattern accepts "1.2", "1.2.3", "v2.0.0-alpine" and rejects "3", "v3", "latest".
var versionTagPattern = regexp.MustCompile(`^v?\d+\.\d+(\.\d+)*(-\w+)?$`)

// IsVersionTag reports whether tag follows the version grammar.
func IsVersionTag(tag string) bool {
	return versionTagPattern.MatchString(tag)
}

// Segments returns the numeric dot-separated segments of a version tag with
// the leading "v" and any "-suffix" removed.
func Segments(tag string) []string {
	core := strings.TrimPrefix(tag, "v")
	if idx := strings.IndexByte(core, '-'); idx >= 0 {
		core = core[:idx]
	}

	return strings.Split(core, ".")
}

// Compare orders two version tags by their numeric segments, most significant first.
// A missing segment counts as 0, so "2.0" and "2.0.0" are equal.
//
// Returns:
//   - int: -1 when a < b, 0 when equal, 1 when a > b.
func Compare(a, b string) int {
	left, right := Segments(a), Segments(b)

	for i := range max(len(left), len(right)) {
		if c := compareSegment(segmentAt(left, i), segmentAt(right, i)); c != 0 {
			return c
		}
	}

	return 0
}

// Latest picks the greatest version tag from a registry listing.
// Non-version tags are ignored; ties keep the first tag seen.
//
// Returns:
//   - string: The winning tag, or empty when no tag follows the grammar.
func Latest(tags []string) string {
	latest := ""

	for _, tag := range tags {
		if !IsVersionTag(tag) {
			continue
		}

		if latest == "" || Compare(tag, latest) > 0 {
			latest = tag
		}
	}

	return latest
}

func segmentAt(segments []string, i int) string {
	if i < len(segments) {
		return segments[i]
	}

	return "0"
}

// compareSegment compares unbounded decimal strings without parsing them, so
// date-like segments such as "20240101120000" never overflow.
func compareSegment(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}

		return 1
	}

	return strings.Compare(a, b)
}
