// Package api wires dockupdate's check cycle into the HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/internal/actions"
	"github.com/dockupdate/dockupdate/pkg/api"
	configAPI "github.com/dockupdate/dockupdate/pkg/api/config"
	"github.com/dockupdate/dockupdate/pkg/api/containers"
	"github.com/dockupdate/dockupdate/pkg/api/info"
	metricsAPI "github.com/dockupdate/dockupdate/pkg/api/metrics"
	"github.com/dockupdate/dockupdate/pkg/check"
	"github.com/dockupdate/dockupdate/pkg/container"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// ServiceName is reported by the service description endpoint.
const ServiceName = "dockupdate"

// Options configures the HTTP API.
type Options struct {
	Host          string
	Port          string
	Token         string
	EnableMetrics bool
	CheckInterval int
	Version       string
}

// GetAPIAddr formats the API address string based on host and port.
func GetAPIAddr(host, port string) string {
	address := host + ":" + port
	if host != "" && strings.Contains(host, ":") && net.ParseIP(host) != nil {
		address = "[" + host + "]:" + port
	}

	return address
}

// StatusFunc returns a containers.CheckFunc running a fresh check cycle per request.
//
// Parameters:
//   - client: Container runtime client.
//   - checker: Registry resolver.
//   - filter: Container selection.
//
// Returns:
//   - containers.CheckFunc: Function listing per-container statuses.
func StatusFunc(client container.Client, checker *check.Checker, filter types.Filter) containers.CheckFunc {
	return func(ctx context.Context) ([]types.ContainerImageStatus, error) {
		report, err := actions.RunCheck(ctx, client, checker, filter)
		if err != nil {
			return nil, err
		}

		return report.Checked(), nil
	}
}

// NewAPI builds the HTTP API with every dockupdate endpoint registered.
//
// The container, config and description endpoints require the token when one is set;
// health is always public. Metrics are only served when enabled.
//
// Parameters:
//   - opts: API settings.
//   - checkFn: Function running a check cycle for the containers endpoint.
//   - server: Optional server replacing the real one.
//
// Returns:
//   - *api.API: API ready to start.
func NewAPI(opts Options, checkFn containers.CheckFunc, server ...api.HTTPServer) *api.API {
	httpAPI := api.New(opts.Token, GetAPIAddr(opts.Host, opts.Port), server...)

	endpoints := info.Endpoints{
		Containers: containers.Path,
		Config:     configAPI.Path,
		Health:     info.HealthPath,
	}

	containersHandler := containers.New(checkFn)
	httpAPI.RegisterFunc(containersHandler.Path, containersHandler.Handle)

	configHandler := configAPI.New(opts.CheckInterval)
	httpAPI.RegisterFunc(configHandler.Path, configHandler.Handle)

	httpAPI.RegisterPublicFunc(info.HealthPath, info.Health)

	if opts.EnableMetrics {
		metricsHandler := metricsAPI.New()
		httpAPI.RegisterHandler(metricsHandler.Path, metricsHandler.Handle)
		endpoints.Metrics = metricsHandler.Path
	}

	infoHandler := info.New(ServiceName, opts.Version, endpoints)
	httpAPI.RegisterFunc(infoHandler.Path, infoHandler.Handle)

	return httpAPI
}

// SetupAndStartAPI builds the HTTP API and starts serving it.
//
// Parameters:
//   - ctx: Context whose cancellation shuts the server down.
//   - opts: API settings.
//   - checkFn: Function running a check cycle for the containers endpoint.
//   - blocking: Whether to block until shutdown.
//   - server: Optional server replacing the real one.
//
// Returns:
//   - error: An error if the API fails to start (excluding clean shutdown), nil otherwise.
func SetupAndStartAPI(
	ctx context.Context,
	opts Options,
	checkFn containers.CheckFunc,
	blocking bool,
	server ...api.HTTPServer,
) error {
	httpAPI := NewAPI(opts, checkFn, server...)

	if err := httpAPI.Start(ctx, blocking); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Error("Failed to start API")

		return fmt.Errorf("failed to start HTTP API: %w", err)
	}

	return nil
}
