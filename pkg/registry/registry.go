package registry

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Kind identifies one of the supported registries.
type Kind string

// Supported registry kinds.
const (
	KindDockerHub Kind = "dockerhub"
	KindGHCR      Kind = "ghcr"
	KindLSCR      Kind = "lscr"
)

// officialNamespace is the Docker Hub namespace of single-segment (official) images.
const officialNamespace = "library"

// Profile carries the endpoints of one registry.
//
// Profiles are immutable values; one exists per Kind.
type Profile struct {
	Kind          Kind   // Registry kind.
	Prefix        string // Reference prefix routing to this profile (e.g. "ghcr.io/"), empty for the default.
	CanonicalHost string // Host users write in image references.
	AuthRealm     string // Token endpoint (e.g. "https://ghcr.io/token").
	Service       string // Service parameter sent to the token endpoint.
	APIBase       string // Registry API base (e.g. "https://ghcr.io/v2").
}

// DockerHub is the default registry profile.
var DockerHub = Profile{
	Kind:          KindDockerHub,
	CanonicalHost: "docker.io",
	AuthRealm:     "https://auth.docker.io/token",
	Service:       "registry.docker.io",
	APIBase:       "https://registry-1.docker.io/v2",
}

// GHCR is the GitHub Container Registry profile.
var GHCR = Profile{
	Kind:          KindGHCR,
	Prefix:        "ghcr.io/",
	CanonicalHost: "ghcr.io",
	AuthRealm:     "https://ghcr.io/token",
	Service:       "ghcr.io",
	APIBase:       "https://ghcr.io/v2",
}

// LSCR is the LinuxServer.io registry profile.
//
// lscr.io redirects to ghcr.io, so tokens and API calls go to ghcr.io directly;
// following the redirect would drop the Authorization header.
var LSCR = Profile{
	Kind:          KindLSCR,
	Prefix:        "lscr.io/",
	CanonicalHost: "lscr.io",
	AuthRealm:     "https://ghcr.io/token",
	Service:       "ghcr.io",
	APIBase:       "https://ghcr.io/v2",
}

// Profiles is an ordered classification table.
type Profiles struct {
	Known   []Profile // Checked in order, first prefix match wins.
	Default Profile   // Used when no prefix matches.
}

// DefaultProfiles returns the built-in classification table.
func DefaultProfiles() Profiles {
	return Profiles{
		Known:   []Profile{GHCR, LSCR},
		Default: DockerHub,
	}
}

// Classify maps a raw image reference to a registry profile using the built-in table.
func Classify(raw string) Profile {
	return DefaultProfiles().Classify(raw)
}

// Classify maps a raw image reference to a registry profile.
//
// Parameters:
//   - raw: Image reference as stored by the container runtime.
//
// Returns:
//   - Profile: The first known profile whose prefix the reference starts with, or the default.
func (p Profiles) Classify(raw string) Profile {
	if profile, ok := p.Match(raw); ok {
		return profile
	}

	return p.Default
}

// Match returns the first known profile whose prefix raw starts with.
// The boolean is false when only the default profile applies.
func (p Profiles) Match(raw string) (Profile, bool) {
	for _, profile := range p.Known {
		if profile.Prefix != "" && strings.HasPrefix(raw, profile.Prefix) {
			logrus.WithFields(logrus.Fields{
				"image":    raw,
				"registry": profile.Kind,
			}).Trace("Classified image reference")

			return profile, true
		}
	}

	return Profile{}, false
}

// APIPath canonicalizes a repository path for this registry's API.
//
// Docker Hub serves official images under "library/"; the expansion is idempotent.
func (p Profile) APIPath(repositoryPath string) string {
	if p.Kind == KindDockerHub && repositoryPath != "" && !strings.Contains(repositoryPath, "/") {
		return officialNamespace + "/" + repositoryPath
	}

	return repositoryPath
}

// AuthURL builds the anonymous pull-scope token URL for a repository.
//
// The query is written literally so the scope keeps its "repository:path:pull" form.
func (p Profile) AuthURL(repositoryPath string) string {
	return fmt.Sprintf(
		"%s?service=%s&scope=repository:%s:pull",
		p.AuthRealm,
		url.QueryEscape(p.Service),
		p.APIPath(repositoryPath),
	)
}
