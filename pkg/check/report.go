package check

import (
	"github.com/samber/lo"

	"github.com/dockupdate/dockupdate/pkg/types"
)

// Report is the result of one check cycle.
type Report struct {
	statuses []types.ContainerImageStatus
}

// NewReport wraps resolved statuses in inventory order.
func NewReport(statuses []types.ContainerImageStatus) *Report {
	return &Report{statuses: statuses}
}

// Checked returns every resolved container.
func (r *Report) Checked() []types.ContainerImageStatus {
	return r.statuses
}

// UpdatesAvailable returns containers with a confirmed newer image.
func (r *Report) UpdatesAvailable() []types.ContainerImageStatus {
	return lo.Filter(r.statuses, func(status types.ContainerImageStatus, _ int) bool {
		return status.UpdateAvailable
	})
}

// Unknown returns containers whose remote digest could not be determined.
func (r *Report) Unknown() []types.ContainerImageStatus {
	return lo.Filter(r.statuses, func(status types.ContainerImageStatus, _ int) bool {
		return status.RemoteDigest == ""
	})
}
