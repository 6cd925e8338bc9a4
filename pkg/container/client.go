package container

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	dockerClient "github.com/docker/docker/client"

	"github.com/dockupdate/dockupdate/pkg/types"
)

// Client is the read-only view of the container runtime used by dockupdate.
type Client interface {
	// ListContainers returns the inventory items accepted by filter.
	ListContainers(ctx context.Context, filter types.Filter) ([]types.InventoryItem, error)
	// GetVersion returns the negotiated Docker API version.
	GetVersion() string
}

// client is the concrete implementation of the Client interface.
//
// It wraps the Docker API client and applies custom behavior via ClientOptions.
type client struct {
	api dockerClient.APIClient
	ClientOptions
}

// ClientOptions configures which containers are listed.
type ClientOptions struct {
	IncludeStopped    bool
	IncludeRestarting bool
}

// NewClient initializes a new Client instance for Docker API interactions.
//
// It configures the client using environment variables (e.g., DOCKER_HOST, DOCKER_API_VERSION) and validates the API version, falling back to autonegotiation if necessary.
//
// Parameters:
//   - opts: Options to customize container listing.
//
// Returns:
//   - Client: Initialized client instance.
//   - error: Non-nil if the Docker client cannot be created.
func NewClient(opts ClientOptions) (Client, error) {
	ctx := context.Background()

	cli, err := dockerClient.NewClientWithOpts(
		dockerClient.FromEnv,
		dockerClient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInitClientFailed, err)
	}

	// Apply forced API version if set and valid.
	if version := strings.Trim(os.Getenv("DOCKER_API_VERSION"), "\""); version != "" {
		pingCli, err := dockerClient.NewClientWithOpts(
			dockerClient.WithHost(cli.DaemonHost()),
			dockerClient.WithVersion(version),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInitClientFailed, err)
		}

		if _, err := pingCli.Ping(ctx); err != nil &&
			strings.Contains(err.Error(), "page not found") {
			logrus.WithFields(logrus.Fields{
				"version":  version,
				"error":    err,
				"endpoint": "/_ping",
			}).Warn("Invalid API version; falling back to autonegotiation")
			cli.NegotiateAPIVersion(ctx)
		} else {
			cli = pingCli
		}
	} else {
		cli.NegotiateAPIVersion(ctx)
	}

	if serverVersion, err := cli.ServerVersion(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"error":    err,
			"endpoint": "/version",
		}).Warn("Failed to retrieve server version")
	} else {
		logrus.WithFields(logrus.Fields{
			"client_version": cli.ClientVersion(),
			"server_version": serverVersion.APIVersion,
		}).Debug("Initialized Docker client")
	}

	return NewClientWithAPI(cli, opts), nil
}

// NewClientWithAPI wraps an existing Docker API client.
//
// Parameters:
//   - api: Docker API client.
//   - opts: Options to customize container listing.
//
// Returns:
//   - Client: Client backed by api.
func NewClientWithAPI(api dockerClient.APIClient, opts ClientOptions) Client {
	return &client{
		api:           api,
		ClientOptions: opts,
	}
}

// ListContainers retrieves a filtered inventory of containers running on the host.
//
// Parameters:
//   - ctx: Context for request lifecycle control.
//   - filter: Filter to apply to the inventory.
//
// Returns:
//   - []types.InventoryItem: List of matching containers.
//   - error: Non-nil if listing fails, nil on success.
func (c *client) ListContainers(ctx context.Context, filter types.Filter) ([]types.InventoryItem, error) {
	items, err := ListInventory(ctx, c.api, c.ClientOptions, filter)
	if err != nil {
		logrus.WithError(err).Debug("Failed to list containers")

		return nil, err
	}

	logrus.WithField("count", len(items)).Debug("Listed containers")

	return items, nil
}

// GetVersion returns the Docker API version used by the client.
func (c *client) GetVersion() string {
	return c.api.ClientVersion()
}
