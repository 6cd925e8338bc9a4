// Package meta holds build metadata for dockupdate.
package meta

var (
	// Version is the release version, set at build time with
	// -ldflags "-X github.com/dockupdate/dockupdate/internal/meta.Version=v1.2.3".
	Version = "v0.0.0-unknown"

	// UserAgent is sent to container registries.
	UserAgent = "dockupdate/" + Version
)
