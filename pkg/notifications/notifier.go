// Package notifications provides mechanisms for sending notifications via various services.
// This file implements the core notifier creation and configuration logic.
package notifications

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dockupdate/dockupdate/pkg/types"
)

// Errors for notifier setup and rendering.
var (
	// errInvalidLevel indicates the notifications log level could not be parsed.
	errInvalidLevel = errors.New("invalid notifications log level")
	// errCreateSenderFailed indicates shoutrrr rejected the configured URLs.
	errCreateSenderFailed = errors.New("failed to initialize shoutrrr notifications")
	// errTemplateParseFailed indicates the configured template could not be parsed.
	errTemplateParseFailed = errors.New("failed to parse notification template string")
	// errTemplateFailed indicates the template failed while rendering.
	errTemplateFailed = errors.New("failed to execute notification template")
	// errMarshalFailed indicates a failure to marshal notification data to JSON.
	errMarshalFailed = errors.New("failed to marshal notification data")
)

// NewNotifier creates a Notifier from the notification flags of c.
//
// Parameters:
//   - c: Root command with notification flags registered.
//
// Returns:
//   - types.Notifier: Notifier ready to send.
//   - error: Non-nil if the level or the URLs are invalid.
func NewNotifier(c *cobra.Command) (types.Notifier, error) {
	flag := c.PersistentFlags()

	level, _ := flag.GetString("notifications-level")
	clog := logrus.WithField("level", level)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidLevel, err)
	}

	stdout, _ := flag.GetBool("notification-log-stdout")
	tplString, _ := flag.GetString("notification-template")
	urls, _ := flag.GetStringArray("notification-url")

	data := GetTemplateData(c)
	delay := GetDelay(c)

	clog.WithFields(logrus.Fields{
		"services": len(urls),
		"template": tplString,
		"stdout":   stdout,
		"delay":    delay,
		"hostname": data.Host,
		"title":    data.Title,
	}).Debug("Creating notifier with configuration")

	return createNotifier(urls, logLevel, tplString, data, stdout, delay)
}

// GetDelay returns the delay applied before each notification is sent.
func GetDelay(c *cobra.Command) time.Duration {
	delay, _ := c.PersistentFlags().GetInt("notifications-delay")
	if delay > 0 {
		return time.Duration(delay) * time.Second
	}

	return 0
}

// GetTitle formats the title based on the passed hostname and tag.
func GetTitle(hostname string, tag string) string {
	titleBuilder := strings.Builder{}
	if tag != "" {
		titleBuilder.WriteRune('[')
		titleBuilder.WriteString(tag)
		titleBuilder.WriteRune(']')
		titleBuilder.WriteRune(' ')
	}

	titleBuilder.WriteString("Image updates")

	if hostname != "" {
		titleBuilder.WriteString(" on ")
		titleBuilder.WriteString(hostname)
	}

	return titleBuilder.String()
}

// GetTemplateData populates the static notification data from flags and environment.
func GetTemplateData(c *cobra.Command) StaticData {
	flag := c.PersistentFlags()

	hostname, _ := flag.GetString("notifications-hostname")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	title := ""

	if skip, _ := flag.GetBool("notification-skip-title"); !skip {
		tag, _ := flag.GetString("notification-title-tag")
		title = GetTitle(hostname, tag)
	}

	logrus.WithFields(logrus.Fields{
		"hostname": hostname,
		"title":    title,
	}).Debug("Populated template data")

	return StaticData{
		Host:  hostname,
		Title: title,
	}
}
