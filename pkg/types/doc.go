// Package types defines the core data model shared across dockupdate.
// It provides the records exchanged between the container inventory, the registry
// resolution engine and the HTTP API.
//
// Key components:
//   - ImageReference: A parsed image string (host, repository path, tag, digest).
//   - AuthToken: An anonymous pull-scope bearer token for one repository.
//   - InventoryItem: A running container as reported by the Docker host.
//   - ContainerImageStatus: The per-container verdict produced by one check cycle.
//   - Filter: Function type for container selection.
//   - Report, Notifier: Cycle summaries and the services they are sent to.
//
// Records are built once per check cycle and never mutated afterwards.
package types
