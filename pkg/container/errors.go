package container

import (
	"errors"
)

// Errors for client initialization in client.go.
var (
	// errInitClientFailed indicates the Docker client could not be created from the environment.
	errInitClientFailed = errors.New("failed to initialize docker client")
)

// Errors for inventory operations in inventory.go.
var (
	// ErrInventoryUnavailable indicates the container list could not be retrieved at all.
	ErrInventoryUnavailable = errors.New("container inventory unavailable")
	// errInspectContainerFailed indicates a failure to inspect a container’s details.
	errInspectContainerFailed = errors.New("failed to inspect container")
	// errInspectImageFailed indicates a failure to inspect a container’s image.
	errInspectImageFailed = errors.New("failed to inspect image")
)
