// Package manifest provides functionality for constructing registry API URLs in dockupdate.
// It builds the manifest and tag-list endpoints for a classified registry profile.
package manifest

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/registry"
)

// BuildManifestURL constructs the URL addressing a tag's manifest.
//
// Parameters:
//   - profile: Registry profile the image was classified to.
//   - repositoryPath: Repository path without host or tag.
//   - tag: Tag to resolve.
//
// Returns:
//   - string: Manifest URL (e.g., "https://registry-1.docker.io/v2/library/alpine/manifests/latest").
func BuildManifestURL(profile registry.Profile, repositoryPath, tag string) string {
	manifestURL := fmt.Sprintf("%s/%s/manifests/%s", apiBase(profile), profile.APIPath(repositoryPath), tag)

	logrus.WithFields(logrus.Fields{
		"registry": profile.Kind,
		"url":      manifestURL,
	}).Debug("Built manifest URL")

	return manifestURL
}

// BuildTagsURL constructs the URL listing a repository's tags.
//
// Parameters:
//   - profile: Registry profile the image was classified to.
//   - repositoryPath: Repository path without host or tag.
//
// Returns:
//   - string: Tag list URL (e.g., "https://ghcr.io/v2/org/app/tags/list").
func BuildTagsURL(profile registry.Profile, repositoryPath string) string {
	tagsURL := fmt.Sprintf("%s/%s/tags/list", apiBase(profile), profile.APIPath(repositoryPath))

	logrus.WithFields(logrus.Fields{
		"registry": profile.Kind,
		"url":      tagsURL,
	}).Debug("Built tags URL")

	return tagsURL
}

func apiBase(profile registry.Profile) string {
	return strings.TrimSuffix(profile.APIBase, "/")
}
