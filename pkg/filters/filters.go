// Package filters provides filtering logic for dockupdate containers.
// It defines various filter functions to select containers based on names, labels, and images.
package filters

import (
	"regexp"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/internal/util"
	"github.com/dockupdate/dockupdate/pkg/container"
	"github.com/dockupdate/dockupdate/pkg/registry/imageref"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// NoFilter allows all containers through.
//
// Returns:
//   - bool: Always true.
func NoFilter(item types.InventoryItem) bool {
	logrus.WithField("container", item.Name).Trace("No filter applied")

	return true
}

// FilterByNames selects containers matching specified names.
//
// A name matches exactly (with or without the leading slash) or as a regular
// expression covering the whole container name.
//
// Parameters:
//   - names: List of names or regex patterns to match.
//   - baseFilter: Base filter to chain.
//
// Returns:
//   - types.Filter: Filter function combining name check with base filter.
func FilterByNames(names []string, baseFilter types.Filter) types.Filter {
	if len(names) == 0 {
		return baseFilter
	}

	return func(item types.InventoryItem) bool {
		clog := logrus.WithFields(logrus.Fields{
			"container": item.Name,
			"names":     names,
		})

		containerName := util.NormalizeContainerName(item.Name)

		for _, name := range names {
			if util.NormalizeContainerName(name) == containerName {
				clog.Debug("Matched container by exact name")

				return baseFilter(item)
			}

			re, err := regexp.Compile(name)
			if err != nil {
				clog.WithError(err).Warn("Invalid regex in name filter")

				continue
			}

			indices := re.FindStringIndex(containerName)
			if indices != nil && indices[0] == 0 && indices[1] == len(containerName) {
				clog.Debug("Matched container by regex")

				return baseFilter(item)
			}
		}

		clog.Debug("Container name did not match any filter")

		return false
	}
}

// FilterByDisableNames excludes containers matching specified names.
//
// Parameters:
//   - disableNames: Names to exclude.
//   - baseFilter: Base filter to chain.
//
// Returns:
//   - types.Filter: Filter function excluding names and applying base filter.
func FilterByDisableNames(disableNames []string, baseFilter types.Filter) types.Filter {
	if len(disableNames) == 0 {
		return baseFilter
	}

	return func(item types.InventoryItem) bool {
		containerName := util.NormalizeContainerName(item.Name)

		for _, name := range disableNames {
			if util.NormalizeContainerName(name) == containerName {
				logrus.WithFields(logrus.Fields{
					"container":    item.Name,
					"disableNames": disableNames,
				}).Debug("Container excluded by disable name")

				return false
			}
		}

		return baseFilter(item)
	}
}

// FilterByEnableLabel selects containers with the enable label set to true.
//
// Parameters:
//   - baseFilter: Base filter to chain.
//
// Returns:
//   - types.Filter: Filter function requiring enable label and applying base filter.
func FilterByEnableLabel(baseFilter types.Filter) types.Filter {
	return func(item types.InventoryItem) bool {
		enabled, ok := container.Enabled(item)
		if !ok || !enabled {
			logrus.WithField("container", item.Name).Debug("Container excluded: enable label not set")

			return false
		}

		return baseFilter(item)
	}
}

// FilterByDisabledLabel excludes containers with enable label set to false.
//
// Parameters:
//   - baseFilter: Base filter to chain.
//
// Returns:
//   - types.Filter: Filter function excluding disabled containers and applying base filter.
func FilterByDisabledLabel(baseFilter types.Filter) types.Filter {
	return func(item types.InventoryItem) bool {
		enabled, ok := container.Enabled(item)
		if ok && !enabled {
			logrus.WithField("container", item.Name).Debug("Container excluded: enable label set to false")

			return false
		}

		return baseFilter(item)
	}
}

// FilterByImage selects containers running one of the given images.
//
// Images are compared by repository path, so "redis", "library/redis" and
// "docker.io/library/redis:7" all select the same containers.
//
// Parameters:
//   - images: Image names to match; tags are ignored.
//   - baseFilter: Base filter to chain.
//
// Returns:
//   - types.Filter: Filter function matching images and applying base filter.
func FilterByImage(images []string, baseFilter types.Filter) types.Filter {
	if len(images) == 0 {
		return baseFilter
	}

	wanted := make([]string, 0, len(images))
	for _, image := range images {
		wanted = append(wanted, imageref.Parse(image).RepositoryPath)
	}

	return func(item types.InventoryItem) bool {
		repository := imageref.Parse(item.Image).RepositoryPath
		if slices.Contains(wanted, repository) {
			return baseFilter(item)
		}

		logrus.WithFields(logrus.Fields{
			"container":  item.Name,
			"repository": repository,
		}).Debug("Container image did not match")

		return false
	}
}

// BuildFilter constructs a composite filter for containers.
//
// Parameters:
//   - names: Names to include.
//   - disableNames: Names to exclude.
//   - images: Images to include.
//   - enableLabel: Require enable label if true.
//
// Returns:
//   - types.Filter: Combined filter function.
//   - string: Description of the filter.
func BuildFilter(
	names []string,
	disableNames []string,
	images []string,
	enableLabel bool,
) (types.Filter, string) {
	logrus.WithFields(logrus.Fields{
		"names":        names,
		"disableNames": disableNames,
		"images":       images,
		"enableLabel":  enableLabel,
	}).Debug("Building container filter")

	var parts []string

	filter := NoFilter
	filter = FilterByNames(names, filter)
	filter = FilterByDisableNames(disableNames, filter)
	filter = FilterByImage(images, filter)

	if len(names) > 0 {
		parts = append(parts, `which name matches "`+strings.Join(names, `" or "`)+`"`)
	}

	if len(disableNames) > 0 {
		parts = append(parts, `not named one of "`+strings.Join(disableNames, `" or "`)+`"`)
	}

	if len(images) > 0 {
		parts = append(parts, `running image "`+strings.Join(images, `" or "`)+`"`)
	}

	if enableLabel {
		filter = FilterByEnableLabel(filter)

		parts = append(parts, "using enable label")
	}

	filter = FilterByDisabledLabel(filter)

	filterDesc := "Checking all containers (except explicitly disabled with label)"
	if len(parts) > 0 {
		filterDesc = "Only checking containers " + strings.Join(parts, ", ")
	}

	logrus.WithField("filter_desc", filterDesc).Debug("Filter built")

	return filter, filterDesc
}
