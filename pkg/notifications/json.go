// Package notifications provides mechanisms for sending notifications via various services.
// This file implements JSON marshaling for notification data.
package notifications

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/types"
)

var _ json.Marshaler = &Data{}

// jsonMap is a type alias for a JSON-compatible map.
type jsonMap = map[string]any

// MarshalJSON implements json.Marshaler for Data.
//
// Returns:
//   - []byte: JSON-encoded data.
//   - error: Non-nil if marshaling fails, nil on success.
func (d Data) MarshalJSON() ([]byte, error) {
	clog := logrus.WithFields(logrus.Fields{
		"title":   d.Title,
		"host":    d.Host,
		"entries": len(d.Entries),
		"notify":  "no",
	})
	clog.Debug("Marshaling notification data to JSON")

	entries := lo.Map(d.Entries, func(entry *logrus.Entry, _ int) jsonMap {
		return jsonMap{
			"level":   entry.Level,
			"message": entry.Message,
			"data":    entry.Data,
			"time":    entry.Time,
		}
	})

	var report jsonMap

	if d.Report != nil {
		report = jsonMap{
			"checked":          marshalStatuses(d.Report.Checked()),
			"updatesAvailable": marshalStatuses(d.Report.UpdatesAvailable()),
			"unknown":          marshalStatuses(d.Report.Unknown()),
		}
	}

	data := jsonMap{
		"report":  report,
		"title":   d.Title,
		"host":    d.Host,
		"entries": entries,
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		clog.WithError(err).Error("Failed to marshal notification data to JSON")

		return nil, fmt.Errorf("%w: %w", errMarshalFailed, err)
	}

	return bytes, nil
}

// marshalStatuses converts container statuses to JSON-compatible maps.
//
// Parameters:
//   - statuses: Resolved container statuses.
//
// Returns:
//   - []jsonMap: JSON maps of status data.
func marshalStatuses(statuses []types.ContainerImageStatus) []jsonMap {
	return lo.Map(statuses, func(status types.ContainerImageStatus, _ int) jsonMap {
		return jsonMap{
			"id":              status.ContainerID.ShortID(),
			"name":            status.Name,
			"imageName":       status.ImageReference,
			"currentTag":      status.CurrentTag,
			"localDigest":     status.LocalDigest,
			"remoteDigest":    status.RemoteDigest,
			"latestVersion":   status.LatestVersionTag,
			"updateAvailable": status.UpdateAvailable,
			"state":           status.State,
		}
	})
}
