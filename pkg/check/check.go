package check

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dockupdate/dockupdate/pkg/metrics"
	"github.com/dockupdate/dockupdate/pkg/registry"
	"github.com/dockupdate/dockupdate/pkg/registry/auth"
	"github.com/dockupdate/dockupdate/pkg/registry/digest"
	"github.com/dockupdate/dockupdate/pkg/registry/helpers"
	"github.com/dockupdate/dockupdate/pkg/registry/imageref"
	"github.com/dockupdate/dockupdate/pkg/registry/version"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// DefaultConcurrency bounds how many containers are resolved at once.
const DefaultConcurrency = 8

// FailureRecorder receives registry failures by stage.
type FailureRecorder interface {
	RegistryFailure(stage string)
}

// Checker resolves container images against their registries.
type Checker struct {
	client      *registry.Client
	profiles    registry.Profiles
	concurrency int
	failures    FailureRecorder
}

// Option configures a Checker.
type Option func(*Checker)

// WithConcurrency sets the number of containers resolved in parallel.
// Values below 1 fall back to DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithProfiles replaces the registry classification table.
func WithProfiles(profiles registry.Profiles) Option {
	return func(c *Checker) {
		c.profiles = profiles
	}
}

// WithFailureRecorder reports registry failures to recorder.
func WithFailureRecorder(recorder FailureRecorder) Option {
	return func(c *Checker) {
		c.failures = recorder
	}
}

// New creates a Checker.
//
// Parameters:
//   - client: Registry HTTP client, nil for a default client.
//   - opts: Options applied in order.
//
// Returns:
//   - *Checker: Configured checker.
func New(client *registry.Client, opts ...Option) *Checker {
	if client == nil {
		client = registry.NewClient()
	}

	checker := &Checker{
		client:      client,
		profiles:    registry.DefaultProfiles(),
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(checker)
	}

	return checker
}

// UpdateAvailable reports whether a confirmed newer image exists.
// Either digest being unknown means no update can be confirmed.
func UpdateAvailable(localDigest, remoteDigest string) bool {
	return remoteDigest != "" && localDigest != "" && !helpers.DigestsEqual(localDigest, remoteDigest)
}

// Check resolves every inventory item, preserving input order.
//
// Parameters:
//   - ctx: Context for cancellation; a cancelled context degrades pending lookups to unknown.
//   - items: Containers to resolve.
//
// Returns:
//   - *Report: One status per item.
func (c *Checker) Check(ctx context.Context, items []types.InventoryItem) *Report {
	start := time.Now()
	statuses := make([]types.ContainerImageStatus, len(items))

	var group errgroup.Group

	group.SetLimit(c.concurrency)

	for i, item := range items {
		group.Go(func() error {
			statuses[i] = c.Resolve(ctx, item)

			return nil
		})
	}

	_ = group.Wait()

	report := NewReport(statuses)

	logrus.WithFields(logrus.Fields{
		"checked":  len(report.Checked()),
		"updates":  len(report.UpdatesAvailable()),
		"unknown":  len(report.Unknown()),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("Check cycle finished")

	return report
}

// Resolve produces the status of a single container.
//
// The digest and version lookups run concurrently, each with its own token. Images on
// an explicit host that no known profile serves are left unknown.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - item: Container to resolve.
//
// Returns:
//   - types.ContainerImageStatus: Resolved status; unknown fields are empty.
func (c *Checker) Resolve(ctx context.Context, item types.InventoryItem) types.ContainerImageStatus {
	ref := imageref.Parse(item.Image)

	status := types.ContainerImageStatus{
		ContainerID:    item.ID,
		Name:           item.Name,
		Status:         item.Status,
		State:          item.State,
		ImageReference: item.Image,
		CurrentTag:     ref.Tag,
		LocalDigest:    item.LocalDigest,
	}

	fields := logrus.Fields{
		"container": item.Name,
		"image":     item.Image,
	}

	if ref.RepositoryPath == "" {
		logrus.WithFields(fields).Debug("Skipping registry lookup for image without repository")

		return status
	}

	profile, known := c.profiles.Match(item.Image)
	if !known {
		if !imageref.IsDefaultRegistry(ref.RegistryHost) {
			logrus.WithFields(fields).WithField("host", ref.RegistryHost).
				Debug("Skipping registry lookup for unsupported registry host")

			return status
		}

		profile = c.profiles.Default
	}

	var (
		group         errgroup.Group
		remoteDigest  string
		latestVersion string
	)

	group.Go(func() error {
		remoteDigest = c.remoteDigest(ctx, profile, ref)

		return nil
	})
	group.Go(func() error {
		latestVersion = c.latestVersion(ctx, profile, ref)

		return nil
	})

	_ = group.Wait()

	status.RemoteDigest = remoteDigest
	status.LatestVersionTag = latestVersion
	status.UpdateAvailable = UpdateAvailable(status.LocalDigest, status.RemoteDigest)

	logrus.WithFields(fields).WithFields(logrus.Fields{
		"registry":         profile.Kind,
		"local_digest":     status.LocalDigest,
		"remote_digest":    status.RemoteDigest,
		"latest_version":   status.LatestVersionTag,
		"update_available": status.UpdateAvailable,
	}).Debug("Resolved container image")

	return status
}

func (c *Checker) remoteDigest(ctx context.Context, profile registry.Profile, ref types.ImageReference) string {
	token, err := auth.GetToken(ctx, c.client, profile, ref.RepositoryPath)
	if err != nil {
		c.recordFailure(metrics.StageToken)

		return ""
	}

	remote := digest.ResolveDigest(ctx, c.client, profile, ref.RepositoryPath, ref.Tag, token)
	if remote == "" {
		c.recordFailure(metrics.StageDigest)
	}

	return remote
}

func (c *Checker) latestVersion(ctx context.Context, profile registry.Profile, ref types.ImageReference) string {
	token, err := auth.GetToken(ctx, c.client, profile, ref.RepositoryPath)
	if err != nil {
		c.recordFailure(metrics.StageToken)

		return ""
	}

	latest, err := version.ResolveLatestVersion(ctx, c.client, profile, ref.RepositoryPath, token)
	if err != nil {
		c.recordFailure(metrics.StageTags)
	}

	return latest
}

func (c *Checker) recordFailure(stage string) {
	if c.failures != nil {
		c.failures.RegistryFailure(stage)
	}
}
