// Package metrics provides tracking and exposure of dockupdate check metrics.
// It integrates with Prometheus to report the outcome of the last check cycle and
// registry failures by stage.
//
// Key components:
//   - Metrics: Handles metric queuing and updates.
//   - NewMetric: Creates metrics from check reports.
//
// Usage example:
//
//	m := metrics.Default()
//	m.RegisterCheck(metrics.NewMetric(report))
//	m.RegistryFailure(metrics.StageDigest)
//
// A nil metric marks a skipped cycle.
package metrics
