// Package config provides the client configuration endpoint of the dockupdate HTTP API.
package config

import (
	"net/http"
	"time"

	"github.com/dockupdate/dockupdate/pkg/api"
)

// Path is the route of the config endpoint.
const Path = "/api/config"

// Response describes how often clients should refresh.
type Response struct {
	CheckInterval      int    `json:"checkInterval"`
	CheckIntervalMs    int64  `json:"checkIntervalMs"`
	AutoRefreshEnabled bool   `json:"autoRefreshEnabled"`
	Timestamp          string `json:"timestamp"`
}

// Handler serves the refresh configuration.
type Handler struct {
	Path          string
	checkInterval int
}

// New creates a config handler.
//
// Parameters:
//   - checkInterval: Refresh interval in seconds, 0 disables auto-refresh.
//
// Returns:
//   - *Handler: Initialized handler.
func New(checkInterval int) *Handler {
	return &Handler{
		Path:          Path,
		checkInterval: checkInterval,
	}
}

// Handle writes the refresh configuration.
func (h *Handler) Handle(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, Response{
		CheckInterval:      h.checkInterval,
		CheckIntervalMs:    (time.Duration(h.checkInterval) * time.Second).Milliseconds(),
		AutoRefreshEnabled: h.checkInterval > 0,
		Timestamp:          api.Timestamp(time.Now()),
	})
}
