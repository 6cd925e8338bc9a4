package types

// DefaultTag is the tag assumed when an image reference carries none.
const DefaultTag = "latest"

// ImageReference is a raw image string split into its addressable parts.
type ImageReference struct {
	Raw            string // Image string as stored by the container runtime.
	RegistryHost   string // Registry host, empty when inferred (Docker Hub).
	RepositoryPath string // Namespace/name without host, tag or digest; empty only for an empty Raw.
	Tag            string // Tag, "latest" when absent.
	Digest         string // Pinned digest, only when the raw string carried one.
}

// AuthToken is an anonymous pull-scope bearer token.
//
// Tokens live for a single resolution call and are never reused.
type AuthToken struct {
	Value     string // Bearer token value.
	IssuedFor string // Repository path the token was issued for.
}

// TokenResponse is the JSON body returned by a registry token endpoint.
type TokenResponse struct {
	Token string `json:"token"`
}

// TagList is the JSON body returned by a registry tags/list endpoint.
type TagList struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}
