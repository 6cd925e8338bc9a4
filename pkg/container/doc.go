// Package container provides the Docker container inventory for dockupdate.
// It lists containers on the host and records, for each one, the image it runs and
// the registry digest its local image was pulled with.
//
// Key components:
//   - Client: Interface for read-only Docker API interactions.
//   - ListInventory: Lists, inspects and filters containers.
//   - Labels: Helpers to interpret dockupdate-specific labels.
//
// Usage example:
//
//	cli, _ := container.NewClient(container.ClientOptions{})
//	items, err := cli.ListContainers(ctx, filters.NoFilter)
//	if err != nil {
//	    logrus.WithError(err).Error("Docker is unavailable")
//	}
//
// Only the list call is fatal. Inspect failures degrade the affected container to
// the data available from the list response.
package container
