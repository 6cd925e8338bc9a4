// Package registry provides the registry resolution engine of dockupdate.
// It classifies image references to their hosting registry and holds the shared HTTP client
// used by the resolver subpackages.
//
// Key components:
//   - registry: Registry profiles (Docker Hub, GHCR, LSCR) and classification by host prefix.
//   - imageref: Total parser splitting image strings into host, repository path, tag and digest.
//   - auth: Anonymous pull-scope bearer token retrieval.
//   - digest: Manifest digest resolution with media type fallback.
//   - version: Tag listing and semantic-version-like ranking.
//   - manifest: Registry API URL construction.
//   - helpers: Digest normalization and display utilities.
//
// Usage example:
//
//	ref := imageref.Parse("ghcr.io/org/app:1.2.3")
//	profile := registry.Classify(ref.Raw)
//	token, err := auth.GetToken(ctx, client, profile, ref.RepositoryPath)
//	remote := digest.ResolveDigest(ctx, client, profile, ref.RepositoryPath, ref.Tag, token)
//
// Every registry-facing failure degrades to an "unknown" result and is logged with logrus.
package registry
