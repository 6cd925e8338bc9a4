package container

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	cerrdefs "github.com/containerd/errdefs"
	dockerContainerType "github.com/docker/docker/api/types/container"
	dockerFiltersType "github.com/docker/docker/api/types/filters"
	dockerClient "github.com/docker/docker/client"

	"github.com/dockupdate/dockupdate/internal/util"
	"github.com/dockupdate/dockupdate/pkg/registry/helpers"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// ListInventory retrieves the container inventory from the Docker host.
//
// It filters containers based on options and a provided filter function.
//
// Parameters:
//   - ctx: Context for request lifecycle control.
//   - api: Docker API client.
//   - opts: Client options for state filtering.
//   - filter: Function to filter inventory items, nil for all.
//
// Returns:
//   - []types.InventoryItem: Filtered inventory in list order.
//   - error: Non-nil (wrapping ErrInventoryUnavailable) if listing fails.
func ListInventory(
	ctx context.Context,
	api dockerClient.APIClient,
	opts ClientOptions,
	filter types.Filter,
) ([]types.InventoryItem, error) {
	clog := logrus.WithFields(logrus.Fields{
		"include_stopped":    opts.IncludeStopped,
		"include_restarting": opts.IncludeRestarting,
	})

	clog.Debug("Retrieving container list")

	filterArgs := dockerFiltersType.NewArgs()
	filterArgs.Add("status", "running")

	if opts.IncludeStopped {
		filterArgs.Add("status", "created")
		filterArgs.Add("status", "exited")
	}

	if opts.IncludeRestarting {
		filterArgs.Add("status", "restarting")
	}

	containers, err := api.ContainerList(ctx, dockerContainerType.ListOptions{Filters: filterArgs})
	if err != nil {
		clog.WithError(err).Debug("Failed to list containers")

		return nil, fmt.Errorf("%w: %w", ErrInventoryUnavailable, err)
	}

	items := make([]types.InventoryItem, 0, len(containers))

	for _, summary := range containers {
		item := inventoryItem(ctx, api, summary)

		if filter == nil || filter(item) {
			items = append(items, item)
		}
	}

	clog.WithField("count", len(items)).Debug("Filtered container list")

	return items, nil
}

// inventoryItem builds an inventory item from a list entry, enriching it with
// inspect data where available.
func inventoryItem(
	ctx context.Context,
	api dockerClient.APIClient,
	summary dockerContainerType.Summary,
) types.InventoryItem {
	item := types.InventoryItem{
		ID:     types.ContainerID(summary.ID),
		Name:   containerName(summary.Names),
		Status: summary.Status,
		State:  summary.State,
		Image:  summary.Image,
		Labels: summary.Labels,
	}

	clog := logrus.WithFields(logrus.Fields{
		"container":    item.Name,
		"container_id": item.ID.ShortID(),
	})

	imageID := summary.ImageID

	info, err := api.ContainerInspect(ctx, summary.ID)
	if err != nil {
		logInspectFailure(clog, fmt.Errorf("%w: %w", errInspectContainerFailed, err))
	} else {
		if info.Config != nil {
			if info.Config.Image != "" {
				item.Image = info.Config.Image
			}

			if info.Config.Labels != nil {
				item.Labels = info.Config.Labels
			}
		}

		if info.ContainerJSONBase != nil && info.Image != "" {
			imageID = info.Image
		}
	}

	if imageID == "" {
		clog.Debug("Container has no image ID, local digest unknown")

		return item
	}

	imageInfo, err := api.ImageInspect(ctx, imageID)
	if err != nil {
		logInspectFailure(clog.WithField("image_id", imageID), fmt.Errorf("%w: %w", errInspectImageFailed, err))

		return item
	}

	item.LocalDigest = helpers.LocalDigest(imageInfo.RepoDigests)

	clog.WithFields(logrus.Fields{
		"image":        item.Image,
		"local_digest": item.LocalDigest,
	}).Debug("Retrieved container and image info")

	return item
}

// logInspectFailure logs missing objects at debug level, since containers can
// disappear between list and inspect, and everything else as a warning.
func logInspectFailure(clog *logrus.Entry, err error) {
	if cerrdefs.IsNotFound(err) {
		clog.WithError(err).Debug("Object vanished during inspection")

		return
	}

	clog.WithError(err).Warn("Inspection failed, using list data")
}

// containerName returns the primary name without the leading slash.
func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}

	return util.NormalizeContainerName(names[0])
}
