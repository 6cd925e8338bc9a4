package container

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/types"
)

// EnableLabel opts a container in (true) or out (false) of update checks.
const EnableLabel = "com.dockupdate.enable"

// Enabled reads the enable label of an inventory item.
//
// Parameters:
//   - item: Inventory item to inspect.
//
// Returns:
//   - bool: Parsed label value.
//   - bool: True if the label is present and parses as a boolean.
func Enabled(item types.InventoryItem) (bool, bool) {
	rawBool, ok := item.Labels[EnableLabel]
	if !ok {
		return false, false
	}

	parsedBool, err := strconv.ParseBool(rawBool)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"container": item.Name,
			"label":     EnableLabel,
			"value":     rawBool,
		}).Debug("Ignoring invalid enable label")

		return false, false
	}

	return parsedBool, true
}
