package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/registry"
	"github.com/dockupdate/dockupdate/pkg/registry/auth"
	"github.com/dockupdate/dockupdate/pkg/registry/manifest"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// MaxPages bounds how many tag-list pages are followed for one repository.
const MaxPages = 50

// listingBudgetPages is the whole listing deadline, in multiples of the per-request timeout.
const listingBudgetPages = 4

// Errors for tag listing.
var (
	// errFailedCreateRequest indicates the tag-list request could not be built.
	errFailedCreateRequest = errors.New("failed to create tag list request")
	// errFailedExecuteRequest indicates a network error or timeout reaching the registry.
	errFailedExecuteRequest = errors.New("failed to execute tag list request")
	// errUnexpectedStatus indicates the registry answered with a non-2xx status.
	errUnexpectedStatus = errors.New("tag list returned unexpected status")
	// errFailedDecodeTags indicates the tag-list body was not valid JSON.
	errFailedDecodeTags = errors.New("failed to decode tag list")
	// errInvalidNextLink indicates a pagination link that could not be resolved.
	errInvalidNextLink = errors.New("invalid pagination link")
	// errForeignNextLink indicates a pagination link pointing away from the registry.
	errForeignNextLink = errors.New("pagination link leaves registry origin")
)

// ListTags fetches every tag of a repository, following "Link: <...>; rel=next" pagination.
//
// Only links on the scheme and host of the first page are followed. The whole listing
// shares one deadline of listingBudgetPages request timeouts. When pagination stops early
// (page limit or foreign link) the tags collected so far are returned.
//
// Parameters:
//   - ctx: Context for request lifecycle control.
//   - client: Registry HTTP client carrying the per-request timeout.
//   - profile: Registry profile the image was classified to.
//   - repositoryPath: Repository path without host or tag.
//   - token: Bearer token issued for the repository.
//
// Returns:
//   - []string: Tags in registry listing order.
//   - error: Non-nil if any page fails.
func ListTags(
	ctx context.Context,
	client *registry.Client,
	profile registry.Profile,
	repositoryPath string,
	token types.AuthToken,
) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, listingBudgetPages*client.RequestTimeout())
	defer cancel()

	first := manifest.BuildTagsURL(profile, repositoryPath)

	origin, err := url.Parse(first)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedCreateRequest, err)
	}

	fields := logrus.Fields{
		"registry":   profile.Kind,
		"repository": repositoryPath,
	}

	var tags []string

	next := first

	for range MaxPages {
		page, link, err := fetchPage(ctx, client, next, token)
		if err != nil {
			return nil, err
		}

		tags = append(tags, page...)

		if link == "" {
			return tags, nil
		}

		next, err = resolveLink(origin, next, link)
		if errors.Is(err, errForeignNextLink) {
			logrus.WithError(err).WithFields(fields).WithField("link", link).
				Warn("Ignoring tag list pagination link, keeping tags listed so far")

			return tags, nil
		}

		if err != nil {
			return nil, err
		}
	}

	logrus.WithFields(fields).WithFields(logrus.Fields{
		"pages": MaxPages,
		"tags":  len(tags),
	}).Warn("Tag list exceeded page limit, keeping tags listed so far")

	return tags, nil
}

// ResolveLatestVersion returns the greatest version tag of a repository.
//
// Parameters:
//   - ctx: Context for request lifecycle control.
//   - client: Registry HTTP client carrying the per-request timeout.
//   - profile: Registry profile the image was classified to.
//   - repositoryPath: Repository path without host or tag.
//   - token: Bearer token issued for the repository.
//
// Returns:
//   - string: The latest version tag, or empty when listing fails or no tag qualifies.
//   - error: Non-nil only when the tag listing failed.
func ResolveLatestVersion(
	ctx context.Context,
	client *registry.Client,
	profile registry.Profile,
	repositoryPath string,
	token types.AuthToken,
) (string, error) {
	fields := logrus.Fields{
		"registry":   profile.Kind,
		"repository": repositoryPath,
	}

	tags, err := ListTags(ctx, client, profile, repositoryPath, token)
	if err != nil {
		logrus.WithError(err).WithFields(fields).Warn("Could not list repository tags")

		return "", err
	}

	latest := Latest(tags)

	logrus.WithFields(fields).WithFields(logrus.Fields{
		"tags":   len(tags),
		"latest": latest,
	}).Debug("Resolved latest version tag")

	return latest, nil
}

// fetchPage retrieves one tag-list page and its next-page link, if any.
func fetchPage(
	ctx context.Context,
	client *registry.Client,
	pageURL string,
	token types.AuthToken,
) ([]string, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, client.RequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errFailedCreateRequest, err)
	}

	req.Header.Set("Accept", "application/json")

	if token.Value != "" {
		req.Header.Set("Authorization", auth.BearerHeader(token))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errFailedExecuteRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", fmt.Errorf("%w: %s", errUnexpectedStatus, resp.Status)
	}

	var list types.TagList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, "", fmt.Errorf("%w: %w", errFailedDecodeTags, err)
	}

	return list.Tags, nextLink(resp.Header.Values("Link")), nil
}

// nextLink extracts the target of a rel="next" entry from Link header values.
func nextLink(values []string) string {
	for _, value := range values {
		for entry := range strings.SplitSeq(value, ",") {
			target, params, found := strings.Cut(strings.TrimSpace(entry), ";")
			if !found {
				continue
			}

			target = strings.TrimSpace(target)
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}

			for param := range strings.SplitSeq(params, ";") {
				key, val, _ := strings.Cut(strings.TrimSpace(param), "=")
				if strings.EqualFold(key, "rel") && strings.Trim(val, `"`) == "next" {
					return target[1 : len(target)-1]
				}
			}
		}
	}

	return ""
}

// resolveLink resolves a possibly relative pagination link against the current page URL.
// The result must share the scheme and host of origin.
func resolveLink(origin *url.URL, current, link string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidNextLink, err)
	}

	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidNextLink, err)
	}

	resolved := base.ResolveReference(ref)
	if !strings.EqualFold(resolved.Scheme, origin.Scheme) || !strings.EqualFold(resolved.Host, origin.Host) {
		return "", fmt.Errorf("%w: %s://%s", errForeignNextLink, resolved.Scheme, resolved.Host)
	}

	return resolved.String(), nil
}
