// Package filters provides filtering logic for dockupdate's container inventory.
// It defines functions to select containers by names, labels, and images.
//
// Key components:
//   - Filter Functions: Select containers (e.g., FilterByNames, FilterByDisabledLabel).
//   - BuildFilter: Combines filters into a single function.
//
// Usage example:
//
//	filter, desc := filters.BuildFilter(names, disableNames, false)
//	items, _ := client.ListContainers(ctx, filter)
//	logrus.Info(desc)
//
// The package uses logrus for logging filter operations and integrates with container types.
package filters
