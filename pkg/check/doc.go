// Package check resolves, per container, whether a newer image is available in its registry.
//
// Each container is parsed, classified and resolved independently. Registry failures only
// downgrade that container's digest or version to unknown; they never abort a cycle.
//
// Usage example:
//
//	checker := check.New(registry.NewClient(), check.WithConcurrency(8))
//	report := checker.Check(ctx, items)
//	for _, status := range report.UpdatesAvailable() {
//	    logrus.Info(status.Name)
//	}
package check
