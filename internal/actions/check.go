// Package actions provides the check cycle run by the scheduler and the HTTP API.
package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/check"
	"github.com/dockupdate/dockupdate/pkg/container"
	"github.com/dockupdate/dockupdate/pkg/metrics"
	"github.com/dockupdate/dockupdate/pkg/registry/helpers"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// errListContainersFailed indicates a failure to list containers during checks.
var errListContainersFailed = errors.New("failed to list containers")

// RunCheck lists the containers accepted by filter, resolves each against its registry
// and records the cycle in the default metrics.
//
// Parameters:
//   - ctx: Context bounding the whole cycle.
//   - client: Container runtime client.
//   - checker: Registry resolver.
//   - filter: Container selection.
//
// Returns:
//   - *check.Report: Per-container statuses in inventory order.
//   - error: Non-nil only if the inventory could not be listed.
func RunCheck(
	ctx context.Context,
	client container.Client,
	checker *check.Checker,
	filter types.Filter,
) (*check.Report, error) {
	start := time.Now()

	items, err := client.ListContainers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errListContainersFailed, err)
	}

	report := checker.Check(ctx, items)
	metrics.Default().RegisterCheck(metrics.NewMetric(report))

	logrus.WithFields(logrus.Fields{
		"checked":           len(report.Checked()),
		"updates_available": len(report.UpdatesAvailable()),
		"unknown":           len(report.Unknown()),
		"duration_ms":       time.Since(start).Milliseconds(),
	}).Debug("Check completed")

	return report, nil
}

// RunCheckWithNotifications runs one check cycle and sends its report to notifier.
//
// Log entries written during the cycle are batched into the notification. When the
// inventory cannot be listed the batch is sent without a report, so the error reaches
// the notification services.
//
// Parameters:
//   - ctx: Context bounding the whole cycle.
//   - client: Container runtime client.
//   - checker: Registry resolver.
//   - filter: Container selection.
//   - notifier: Notification sink, may be nil.
//
// Returns:
//   - *check.Report: The cycle report, nil if the inventory failed.
func RunCheckWithNotifications(
	ctx context.Context,
	client container.Client,
	checker *check.Checker,
	filter types.Filter,
	notifier types.Notifier,
) *check.Report {
	if notifier != nil {
		notifier.StartNotification()
	}

	report, err := RunCheck(ctx, client, checker, filter)
	if err != nil {
		logrus.WithError(err).Error("Check failed")

		if notifier != nil {
			notifier.SendNotification(nil)
		}

		return nil
	}

	LogReport(report)

	if notifier != nil {
		notifier.SendNotification(report)
	}

	return report
}

// LogReport writes one line per container with an update and a cycle summary.
func LogReport(report types.Report) {
	for _, status := range report.UpdatesAvailable() {
		logrus.WithFields(logrus.Fields{
			"container":      status.Name,
			"image":          status.ImageReference,
			"current":        helpers.ShortDigest(status.LocalDigest),
			"latest":         helpers.ShortDigest(status.RemoteDigest),
			"latest_version": status.LatestVersionTag,
		}).Info("Update available")
	}

	for _, status := range report.Unknown() {
		logrus.WithFields(logrus.Fields{
			"container": status.Name,
			"image":     status.ImageReference,
		}).Debug("Remote digest unknown")
	}

	logrus.WithFields(logrus.Fields{
		"checked":           len(report.Checked()),
		"updates_available": len(report.UpdatesAvailable()),
		"unknown":           len(report.Unknown()),
	}).Info("Session done")
}
