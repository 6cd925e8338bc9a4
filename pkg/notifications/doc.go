// Package notifications sends check results to notification services through Shoutrrr.
//
// A notifier renders a text/template (a common template by name or a custom body) against the
// cycle report and any log entries collected while a batch was open, then queues the message for
// a background sender.
//
// Key components:
//   - Notifier Creation: Configures notifiers from flags (notifier.go).
//   - Shoutrrr Integration: Handles templating, batching and sending (shoutrrr.go).
//   - JSON Marshaling: Formats notification data for the json.v1 template (json.go).
//
// Usage example:
//
//	notifier, err := notifications.NewNotifier(cmd)
//	notifier.StartNotification()
//	notifier.SendNotification(report)
//	notifier.Close()
package notifications
