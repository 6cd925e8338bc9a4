// Package containers provides the container status endpoint of the dockupdate HTTP API.
package containers

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/api"
	"github.com/dockupdate/dockupdate/pkg/registry/helpers"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// Path is the route of the containers endpoint.
const Path = "/api/containers"

// InventoryErrorDetails explains an inventory failure to API clients.
const InventoryErrorDetails = "Failed to connect to Docker. Make sure Docker is running and accessible."

// CheckFunc runs a check cycle and returns per-container statuses in inventory order.
type CheckFunc func(ctx context.Context) ([]types.ContainerImageStatus, error)

// Record is the JSON representation of one container.
type Record struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Image           string  `json:"image"`
	CurrentTag      string  `json:"currentTag"`
	LatestTag       string  `json:"latestTag"`
	LatestVersion   *string `json:"latestVersion"`
	Status          string  `json:"status"`
	State           string  `json:"state"`
	UpdateAvailable bool    `json:"updateAvailable"`
	CurrentDigest   string  `json:"currentDigest"`
	LatestDigest    string  `json:"latestDigest"`
	LocalDigest     *string `json:"localDigest"`
	RemoteDigest    *string `json:"remoteDigest"`
}

// Response is the body of a successful containers request.
type Response struct {
	Success    bool     `json:"success"`
	Containers []Record `json:"containers"`
	Timestamp  string   `json:"timestamp"`
}

// Handler serves the current update status of every container.
type Handler struct {
	Path string
	fn   CheckFunc
	now  func() time.Time
}

// New creates a containers handler.
//
// Parameters:
//   - fn: Function running one check cycle per request.
//
// Returns:
//   - *Handler: Initialized handler.
func New(fn CheckFunc) *Handler {
	return &Handler{
		Path: Path,
		fn:   fn,
		now:  time.Now,
	}
}

// Handle runs a check and writes the resulting records.
//
// An inventory failure answers 500 with an error body. Registry failures never
// fail the request; they surface as unknown fields on the affected records.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.fn(r.Context())
	if err != nil {
		logrus.WithError(err).Error("Error fetching containers")
		api.WriteJSON(w, http.StatusInternalServerError, api.ErrorResponse{
			Error:   err.Error(),
			Details: InventoryErrorDetails,
		})

		return
	}

	api.WriteJSON(w, http.StatusOK, Response{
		Success:    true,
		Containers: lo.Map(statuses, func(status types.ContainerImageStatus, _ int) Record { return NewRecord(status) }),
		Timestamp:  api.Timestamp(h.now()),
	})
}

// NewRecord converts a resolved status into its JSON representation.
func NewRecord(status types.ContainerImageStatus) Record {
	latestTag := status.CurrentTag
	if status.LatestVersionTag != "" {
		latestTag = status.LatestVersionTag
	}

	return Record{
		ID:              status.ContainerID.ShortID(),
		Name:            status.Name,
		Image:           status.ImageReference,
		CurrentTag:      status.CurrentTag,
		LatestTag:       latestTag,
		LatestVersion:   lo.EmptyableToPtr(status.LatestVersionTag),
		Status:          status.Status,
		State:           status.State,
		UpdateAvailable: status.UpdateAvailable,
		CurrentDigest:   helpers.ShortDigest(status.LocalDigest),
		LatestDigest:    helpers.ShortDigest(status.RemoteDigest),
		LocalDigest:     lo.EmptyableToPtr(status.LocalDigest),
		RemoteDigest:    lo.EmptyableToPtr(status.RemoteDigest),
	}
}
