// Package actions runs dockupdate check cycles.
//
// Key components:
//   - RunCheck: Lists containers, resolves them against their registries and records metrics.
//   - RunCheckWithNotifications: Runs a cycle and sends its report to the configured notifier.
//   - LogReport: Logs the containers with updates and a cycle summary.
//
// Usage example:
//
//	report, err := actions.RunCheck(ctx, client, checker, filter)
//	if err != nil {
//	    logrus.WithError(err).Error("Check failed")
//	}
//
// The HTTP API calls RunCheck per request; the scheduler calls RunCheckWithNotifications.
package actions
