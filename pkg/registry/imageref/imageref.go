// Package imageref splits raw image strings into registry host, repository path, tag and digest.
// Parsing never fails: malformed input degrades to a best-effort split with the "latest" tag.
package imageref

import (
	"cmp"
	"strings"

	"github.com/distribution/reference"
	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/types"
)

// Docker Hub host spellings that denote the default registry.
const (
	DefaultRegistryDomain       = "docker.io"
	LegacyDefaultRegistryDomain = "index.docker.io"
	officialNamespace           = "library"
)

// Parse splits a raw image string into its addressable parts.
//
// A pinned digest is recorded but never used as the tag. Single-segment names on the
// default registry are expanded to "library/<name>". Every non-empty input yields a
// non-empty RepositoryPath; an empty input yields an empty one, which callers treat as
// "nothing to look up".
//
// Parameters:
//   - raw: Image reference as stored by the container runtime (e.g. "ghcr.io/org/app:1.2.3").
//
// Returns:
//   - types.ImageReference: The parsed reference; never fails.
func Parse(raw string) types.ImageReference {
	if raw == "" {
		return types.ImageReference{Tag: types.DefaultTag}
	}

	if ref, ok := parseNormalized(raw); ok {
		return ref
	}

	logrus.WithField("image", raw).Debug("Image reference is not canonical, splitting manually")

	return parseFallback(raw)
}

// parseNormalized parses well-formed references with distribution/reference.
func parseNormalized(raw string) (types.ImageReference, bool) {
	named, err := reference.ParseNormalizedNamed(raw)
	if err != nil {
		return types.ImageReference{}, false
	}

	ref := types.ImageReference{
		Raw:            raw,
		RegistryHost:   explicitHost(raw),
		RepositoryPath: reference.Path(named),
		Tag:            types.DefaultTag,
	}

	if tagged, ok := named.(reference.Tagged); ok && tagged.Tag() != "" {
		ref.Tag = tagged.Tag()
	}

	if canonical, ok := named.(reference.Canonical); ok {
		ref.Digest = canonical.Digest().String()
	}

	return ref, true
}

// parseFallback is the total split used when the reference does not parse.
func parseFallback(raw string) types.ImageReference {
	name, digest, _ := strings.Cut(raw, "@")

	host := explicitHost(name)
	rest := strings.TrimPrefix(name, host)
	rest = strings.TrimPrefix(rest, "/")

	tag := types.DefaultTag

	// Only a colon after the last slash separates a tag; host ports were stripped above.
	if colon := strings.LastIndexByte(rest, ':'); colon >= 0 && colon > strings.LastIndexByte(rest, '/') {
		if candidate := rest[colon+1:]; candidate != "" {
			tag = candidate
		}

		rest = rest[:colon]
	}

	rest = cmp.Or(rest, name, raw)

	if rest != "" && IsDefaultRegistry(host) && !strings.Contains(rest, "/") {
		rest = officialNamespace + "/" + rest
	}

	return types.ImageReference{
		Raw:            raw,
		RegistryHost:   host,
		RepositoryPath: rest,
		Tag:            tag,
		Digest:         digest,
	}
}

// explicitHost returns the registry host written at the start of a reference, if any.
//
// The first path component is a host when it contains "." or ":" or is "localhost".
func explicitHost(raw string) string {
	first, _, found := strings.Cut(raw, "/")
	if !found {
		return ""
	}

	if strings.ContainsAny(first, ".:") || first == "localhost" {
		return first
	}

	return ""
}

// IsDefaultRegistry reports whether host denotes Docker Hub. An empty host is implicit Docker Hub.
func IsDefaultRegistry(host string) bool {
	return host == "" || host == DefaultRegistryDomain || host == LegacyDefaultRegistryDomain
}
