// Package info provides the service description and health endpoints of the dockupdate HTTP API.
package info

import (
	"net/http"
	"time"

	"github.com/dockupdate/dockupdate/pkg/api"
)

// Routes served by this package.
const (
	Path       = "/api"
	HealthPath = "/api/health"
)

// Endpoints lists the routes a client can use.
type Endpoints struct {
	Containers string `json:"containers"`
	Config     string `json:"config"`
	Health     string `json:"health"`
	Metrics    string `json:"metrics"`
}

// Response describes the running service.
type Response struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Endpoints Endpoints `json:"endpoints"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Handler serves the service description.
type Handler struct {
	Path     string
	response Response
}

// New creates a service description handler.
//
// Parameters:
//   - name: Service name.
//   - version: Service version.
//   - endpoints: Routes to advertise.
//
// Returns:
//   - *Handler: Initialized handler.
func New(name, version string, endpoints Endpoints) *Handler {
	return &Handler{
		Path: Path,
		response: Response{
			Name:      name,
			Version:   version,
			Endpoints: endpoints,
		},
	}
}

// Handle writes the service description.
func (h *Handler) Handle(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.response)
}

// Health writes a liveness response.
func Health(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: api.Timestamp(time.Now()),
	})
}
