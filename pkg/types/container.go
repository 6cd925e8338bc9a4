package types

import (
	"strings"
)

// ContainerID is a hash string for a container instance.
type ContainerID string

// ShortID returns the 12-character short version of a container ID.
//
// Returns:
//   - string: Shortened ID without "sha256:" prefix.
func (id ContainerID) ShortID() string {
	return shortID(string(id))
}

// shortIDLength is the number of hex characters kept by ShortID.
const shortIDLength = 12

// shortID shortens a hash string to 12 characters.
//
// Parameters:
//   - longID: Full hash string.
//
// Returns:
//   - string: Shortened ID, adjusted for "sha256:" prefix.
func shortID(longID string) string {
	prefixSep := strings.IndexRune(longID, ':')
	offset := 0
	length := shortIDLength

	// Adjust offset for "sha256:" prefix.
	if prefixSep >= 0 {
		if longID[0:prefixSep] == "sha256" {
			offset = prefixSep + 1
		} else {
			length += prefixSep + 1
		}
	}

	// Return shortened ID or full string if too short.
	if len(longID) >= offset+length {
		return longID[offset : offset+length]
	}

	return longID
}

// InventoryItem is a container reported by the container runtime.
//
// LocalDigest is empty when the image has no recorded repo digest
// (locally built or never pulled from a registry).
type InventoryItem struct {
	ID          ContainerID       // Full container ID.
	Name        string            // Container name without the leading slash.
	Status      string            // Human-readable status (e.g. "Up 3 hours").
	State       string            // Runtime state (e.g. "running").
	Image       string            // Image reference as stored in the container config.
	LocalDigest string            // Digest half of the first repo digest, or empty.
	Labels      map[string]string // Container labels.
}

// Filter selects inventory items for a check cycle.
type Filter func(item InventoryItem) bool
