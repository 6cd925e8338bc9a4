// Package helpers provides utility functions for registry-related operations in dockupdate.
// It includes methods for normalizing, validating and shortening digests.
package helpers

import (
	"strings"

	"github.com/opencontainers/go-digest"
)

// Unknown is the display value of a digest that could not be determined.
const Unknown = "unknown"

// shortDigestLength is the number of hex characters shown for a digest.
const shortDigestLength = 12

// NormalizeDigest standardizes a digest string for consistent comparison.
// It trims common prefixes (e.g., "sha256:") to return the raw digest value,
// ensuring compatibility across different registry formats.
func NormalizeDigest(digest string) string {
	prefixes := []string{"sha256:"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(digest, prefix) {
			return strings.TrimPrefix(digest, prefix)
		}
	}

	return digest
}

// IsValidDigest reports whether value is a well-formed content digest ("algorithm:hex").
func IsValidDigest(value string) bool {
	_, err := digest.Parse(value)

	return err == nil
}

// ShortDigest returns the first 12 hex characters of a digest for display.
//
// Parameters:
//   - value: Digest such as "sha256:abc...", with or without algorithm prefix.
//
// Returns:
//   - string: The shortened hex, or "unknown" when value is empty.
func ShortDigest(value string) string {
	if value == "" {
		return Unknown
	}

	encoded := NormalizeDigest(value)
	if parsed, err := digest.Parse(value); err == nil {
		encoded = parsed.Encoded()
	}

	if len(encoded) > shortDigestLength {
		return encoded[:shortDigestLength]
	}

	return encoded
}

// LocalDigest extracts the digest half of the first repo digest entry.
//
// Parameters:
//   - repoDigests: Image repo digests (e.g. "nginx@sha256:abc...").
//
// Returns:
//   - string: The digest (e.g. "sha256:abc..."), or empty when none is recorded.
func LocalDigest(repoDigests []string) string {
	if len(repoDigests) == 0 {
		return ""
	}

	_, value, found := strings.Cut(repoDigests[0], "@")
	if !found {
		return ""
	}

	return value
}

// DigestsEqual compares two digests, ignoring a "sha256:" prefix on either side.
func DigestsEqual(a, b string) bool {
	return NormalizeDigest(a) == NormalizeDigest(b)
}
