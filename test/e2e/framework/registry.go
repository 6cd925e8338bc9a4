//go:build e2e

// Package framework provides registry management for dockupdate end-to-end tests.
// It runs a real registry container with testcontainers and publishes images to it.
package framework

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dockupdate/dockupdate/pkg/registry"
)

// registryImage is the registry started for tests.
const registryImage = "registry:2"

// startupTimeout bounds how long the registry may take to listen.
const startupTimeout = 60 * time.Second

// LocalRegistry manages a local Docker registry container and an anonymous token endpoint.
type LocalRegistry struct {
	container testcontainers.Container
	tokens    *httptest.Server
	host      string
}

// NewLocalRegistry creates and starts a local Docker registry container.
//
// Parameters:
//   - ctx: Context bounding container startup.
//
// Returns:
//   - *LocalRegistry: The running registry.
//   - error: Non-nil if the container cannot be started.
func NewLocalRegistry(ctx context.Context) (*LocalRegistry, error) {
	req := testcontainers.ContainerRequest{
		Image:        registryImage,
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStartupTimeout(startupTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start registry container: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, "5000/tcp", "")
	if err != nil {
		_ = container.Terminate(ctx)

		return nil, fmt.Errorf("failed to get registry endpoint: %w", err)
	}

	// The registry runs without auth; the token endpoint stands in for a realm.
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"anonymous"}`))
	}))

	logrus.WithField("host", endpoint).Info("Local registry started")

	return &LocalRegistry{container: container, tokens: tokens, host: endpoint}, nil
}

// Host returns the registry host and port.
func (r *LocalRegistry) Host() string {
	return r.host
}

// Profile returns a registry profile routing lookups to this registry.
func (r *LocalRegistry) Profile() registry.Profile {
	return registry.Profile{
		Kind:          registry.KindGHCR,
		Prefix:        r.host + "/",
		CanonicalHost: r.host,
		AuthRealm:     r.tokens.URL + "/token",
		Service:       r.host,
		APIBase:       "http://" + r.host + "/v2",
	}
}

// Profiles returns a profile table containing only this registry.
func (r *LocalRegistry) Profiles() registry.Profiles {
	profile := r.Profile()

	return registry.Profiles{Known: []registry.Profile{profile}, Default: profile}
}

// PushRandomImage publishes a random single-layer image under repository:tag.
//
// Parameters:
//   - ctx: Context for the push.
//   - repository: Repository path, e.g. "org/app".
//   - tag: Tag to push.
//
// Returns:
//   - string: Manifest digest of the pushed image.
//   - error: Non-nil if the push fails.
func (r *LocalRegistry) PushRandomImage(ctx context.Context, repository, tag string) (string, error) {
	img, err := random.Image(1024, 1)
	if err != nil {
		return "", fmt.Errorf("failed to create image: %w", err)
	}

	return r.push(ctx, img, repository, tag)
}

func (r *LocalRegistry) push(ctx context.Context, img v1.Image, repository, tag string) (string, error) {
	ref, err := name.ParseReference(fmt.Sprintf("%s/%s:%s", r.host, repository, tag), name.Insecure)
	if err != nil {
		return "", fmt.Errorf("failed to parse reference: %w", err)
	}

	if err := remote.Write(ref, img, remote.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("failed to push %s: %w", ref, err)
	}

	digest, err := img.Digest()
	if err != nil {
		return "", fmt.Errorf("failed to compute digest: %w", err)
	}

	logrus.WithFields(logrus.Fields{"image": ref.String(), "digest": digest}).Debug("Pushed test image")

	return digest.String(), nil
}

// Cleanup stops the token endpoint and removes the registry container.
func (r *LocalRegistry) Cleanup(ctx context.Context) error {
	r.tokens.Close()

	if err := r.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate registry container: %w", err)
	}

	return nil
}
