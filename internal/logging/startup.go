// Package logging writes dockupdate's startup information.
// It reports the version, notifier setup, container filtering and schedule, and batches the
// messages into a single startup notification when notifiers are configured.
package logging

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dockupdate/dockupdate/internal/util"
	"github.com/dockupdate/dockupdate/pkg/container"
	"github.com/dockupdate/dockupdate/pkg/notifications"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// defaultAPIPort is shown when the port flag is unset.
const defaultAPIPort = "3456"

// WriteStartupMessage logs or notifies startup information based on configuration flags.
//
// Parameters:
//   - c: The cobra.Command instance, providing access to flags like --no-startup-message.
//   - nextRun: The time of the first scheduled check, or zero if background checks are disabled.
//   - filtering: A string describing the container filter applied (e.g., "Checking all containers").
//   - client: The container client used to report the Docker API version.
//   - notifier: The notifier receiving the batched startup message, may be nil.
//   - version: The dockupdate version string.
func WriteStartupMessage(
	c *cobra.Command,
	nextRun time.Time,
	filtering string,
	client container.Client,
	notifier types.Notifier,
	version string,
) {
	noStartupMessage, _ := c.PersistentFlags().GetBool("no-startup-message")
	runOnce, _ := c.PersistentFlags().GetBool("run-once")

	startupLog := SetupStartupLogger(noStartupMessage, notifier)

	var apiVersion string
	if client != nil {
		apiVersion = client.GetVersion()
	}

	startupLog.Info("dockupdate ", version, " using Docker API v", apiVersion)

	var notifierNames []string
	if notifier != nil {
		notifierNames = notifier.GetNames()
	}

	LogNotifierInfo(startupLog, notifierNames)
	startupLog.Info(filtering)
	LogScheduleInfo(startupLog, c, nextRun)

	if !runOnce {
		startupLog.Info("The HTTP API is listening on " + APIListenAddr(c))
	}

	if !noStartupMessage && notifier != nil {
		notifier.SendNotification(nil)
	}

	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		startupLog.Warn(
			"Trace level enabled: log will include sensitive information such as API tokens",
		)
	}
}

// APIListenAddr formats the HTTP API address from the host and port flags.
func APIListenAddr(c *cobra.Command) string {
	host, _ := c.PersistentFlags().GetString("http-api-host")

	port, _ := c.PersistentFlags().GetString("http-api-port")
	if port == "" {
		port = defaultAPIPort
	}

	return host + ":" + port
}

// SetupStartupLogger returns the logger for startup messages.
//
// Suppressed startup messages go to a local-only entry; otherwise a notification batch is opened
// so the messages are delivered together.
//
// Parameters:
//   - noStartupMessage: Whether startup messages should be logged locally only.
//   - notifier: The notifier batching messages, may be nil.
//
// Returns:
//   - *logrus.Entry: A configured log entry for writing startup messages.
func SetupStartupLogger(noStartupMessage bool, notifier types.Notifier) *logrus.Entry {
	if noStartupMessage {
		return notifications.LocalLog
	}

	if notifier != nil {
		notifier.StartNotification()
	}

	return logrus.NewEntry(logrus.StandardLogger())
}

// LogNotifierInfo logs the configured notifier names, or that none are set up.
func LogNotifierInfo(log *logrus.Entry, notifierNames []string) {
	if len(notifierNames) > 0 {
		log.Info("Using notifications: " + strings.Join(notifierNames, ", "))
	} else {
		log.Info("Using no notifications")
	}
}

// LogScheduleInfo logs when checks will run.
//
// Parameters:
//   - log: The logrus.Entry used to write the schedule information.
//   - c: The cobra.Command instance, providing access to the run-once flag.
//   - nextRun: The time of the first scheduled check, or zero if none is scheduled.
func LogScheduleInfo(log *logrus.Entry, c *cobra.Command, nextRun time.Time) {
	runOnce, _ := c.PersistentFlags().GetBool("run-once")

	switch {
	case runOnce:
		log.Info("Running a one time check.")
	case !nextRun.IsZero():
		until := util.FormatDuration(time.Until(nextRun))
		log.Info("Scheduling first check: " + nextRun.Format("2006-01-02 15:04:05 -0700 MST"))
		log.Info("Note that the first check will be performed in " + until)
	default:
		log.Info("Background checks disabled. Containers are checked on API request only.")
	}
}
