// Package digest provides functionality for resolving remote manifest digests in dockupdate.
// Registries answer with different manifest schemas depending on the Accept header, so the
// resolver probes a fixed, prioritized list of media types and keeps the first digest served.
package digest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/registry"
	"github.com/dockupdate/dockupdate/pkg/registry/auth"
	"github.com/dockupdate/dockupdate/pkg/registry/helpers"
	"github.com/dockupdate/dockupdate/pkg/registry/manifest"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// ContentDigestHeader is the HTTP header key used to retrieve the digest from a registry’s response.
// This header contains the digest value (e.g., "sha256:abc...") for an image manifest, allowing
// the resolver to read it without downloading the manifest body.
const ContentDigestHeader = "Docker-Content-Digest"

// Docker distribution manifest media types.
const (
	MediaTypeDockerManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"
	MediaTypeDockerManifest     = "application/vnd.docker.distribution.manifest.v2+json"
)

// MediaTypes lists the Accept values probed, in priority order.
//
// Multi-architecture indexes come first so the digest matches what the local runtime
// recorded when it pulled a multi-arch image.
var MediaTypes = []string{
	ocispec.MediaTypeImageIndex,
	MediaTypeDockerManifestList,
	MediaTypeDockerManifest,
}

// Errors for a single digest probe.
var (
	// errFailedCreateRequest indicates the HEAD request could not be built.
	errFailedCreateRequest = errors.New("failed to create request")
	// errFailedExecuteRequest indicates a network error or timeout reaching the registry.
	errFailedExecuteRequest = errors.New("failed to execute request")
	// errUnexpectedStatus indicates the registry answered with a non-2xx status.
	errUnexpectedStatus = errors.New("registry returned unexpected status")
	// errMissingDigest indicates the response lacked a usable digest header.
	errMissingDigest = errors.New("registry response has no valid digest header")
)

// ResolveDigest returns the registry's current manifest digest for a tag.
//
// Each media type in MediaTypes is tried once with its own timeout. A failed attempt moves
// on to the next candidate; there is no retry or backoff.
//
// Parameters:
//   - ctx: Context for request lifecycle control.
//   - client: Registry HTTP client carrying the request timeout.
//   - profile: Registry profile the image was classified to.
//   - repositoryPath: Repository path without host or tag.
//   - tag: Tag to resolve.
//   - token: Bearer token issued for the repository.
//
// Returns:
//   - string: The digest (e.g. "sha256:abc..."), or empty when it cannot be determined.
func ResolveDigest(
	ctx context.Context,
	client *registry.Client,
	profile registry.Profile,
	repositoryPath, tag string,
	token types.AuthToken,
) string {
	fields := logrus.Fields{
		"registry":   profile.Kind,
		"repository": repositoryPath,
		"tag":        tag,
	}

	manifestURL := manifest.BuildManifestURL(profile, repositoryPath, tag)

	for _, mediaType := range MediaTypes {
		if ctx.Err() != nil {
			logrus.WithFields(fields).Debug("Digest resolution cancelled")

			return ""
		}

		remoteDigest, err := headDigest(ctx, client, manifestURL, mediaType, token)
		if err != nil {
			logrus.WithError(err).WithFields(fields).
				WithField("accept", mediaType).
				Debug("Digest probe failed, trying next media type")

			continue
		}

		logrus.WithFields(fields).WithFields(logrus.Fields{
			"accept":        mediaType,
			"remote_digest": remoteDigest,
		}).Debug("Fetched remote digest")

		return remoteDigest
	}

	logrus.WithFields(fields).Warn("Could not determine remote digest")

	return ""
}

// headDigest issues one HEAD request with a single Accept value.
func headDigest(
	ctx context.Context,
	client *registry.Client,
	manifestURL, mediaType string,
	token types.AuthToken,
) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, client.RequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, manifestURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errFailedCreateRequest, err)
	}

	if token.Value != "" {
		req.Header.Set("Authorization", auth.BearerHeader(token))
	}

	req.Header.Set("Accept", mediaType)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errFailedExecuteRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %s", errUnexpectedStatus, resp.Status)
	}

	value := strings.TrimSpace(resp.Header.Get(ContentDigestHeader))
	if !helpers.IsValidDigest(value) {
		return "", fmt.Errorf("%w: %q", errMissingDigest, value)
	}

	return value, nil
}
