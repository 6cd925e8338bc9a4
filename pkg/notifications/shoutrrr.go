// Package notifications provides mechanisms for sending notifications via various services.
// This file implements the core Shoutrrr notification handling with templating and batching.
package notifications

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/sirupsen/logrus"

	shoutrrrTypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/dockupdate/dockupdate/pkg/notifications/templates"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// LocalLog is a logrus logger that does not send entries as notifications.
// It’s used for internal logging to avoid notification loops.
var LocalLog = logrus.WithField("notify", "no")

// router defines the interface for sending Shoutrrr notifications.
type router interface {
	Send(message string, params *shoutrrrTypes.Params) []error
}

// shoutrrrTypeNotifier implements the Notifier and logrus.Hook interfaces for Shoutrrr notifications.
// It manages message queuing, templating, and sending with configurable delay and parameters.
type shoutrrrTypeNotifier struct {
	Urls      []string
	Router    router
	mu        sync.Mutex
	entries   []*logrus.Entry
	logLevel  logrus.Level
	template  *template.Template
	messages  chan string
	done      chan bool
	params    *shoutrrrTypes.Params
	data      StaticData
	receiving bool
	delay     time.Duration
}

// GetScheme extracts the scheme part of a Shoutrrr URL.
// It returns "invalid" if no scheme is found.
func GetScheme(url string) string {
	schemeEnd := strings.Index(url, ":")
	if schemeEnd <= 0 {
		return "invalid"
	}

	return url[:schemeEnd]
}

// GetNames returns a list of notification service names derived from URLs.
func (n *shoutrrrTypeNotifier) GetNames() []string {
	names := make([]string, len(n.Urls))
	for i, u := range n.Urls {
		names[i] = GetScheme(u)
	}

	return names
}

// GetURLs returns the list of URLs for configured notification services.
func (n *shoutrrrTypeNotifier) GetURLs() []string {
	return n.Urls
}

// AddLogHook adds the notifier as a logrus hook so log messages written during a batch are included.
func (n *shoutrrrTypeNotifier) AddLogHook() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.receiving {
		return
	}

	n.receiving = true
	logrus.AddHook(n)
}

// createNotifier initializes a new Shoutrrr notifier for sending notifications through multiple services.
//
// The template string names a common template or holds a template body; an empty or unparsable
// string falls back to the default template. Shoutrrr's own logs go to stdout when requested and to
// the logrus trace level otherwise. The sending goroutine starts immediately.
func createNotifier(
	urls []string,
	level logrus.Level,
	tplString string,
	data StaticData,
	stdout bool,
	delay time.Duration,
) (*shoutrrrTypeNotifier, error) {
	tpl, err := getShoutrrrTemplate(tplString)
	if err != nil {
		logrus.Errorf(
			"Could not use configured notification template: %s. Using default template",
			err,
		)

		tpl, _ = getShoutrrrTemplate("")
	}

	var logger shoutrrrTypes.StdLogger
	if stdout {
		logger = log.New(os.Stdout, ``, 0)
	} else {
		logger = log.New(logrus.StandardLogger().WriterLevel(logrus.TraceLevel), "Shoutrrr: ", 0)
	}

	router, err := shoutrrr.NewSender(logger, urls...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errCreateSenderFailed, err)
	}

	params := &shoutrrrTypes.Params{}
	if data.Title != "" {
		params.SetTitle(data.Title)
	}

	notifier := &shoutrrrTypeNotifier{
		Urls:     urls,
		Router:   router,
		messages: make(chan string, 1),
		done:     make(chan bool),
		logLevel: level,
		template: tpl,
		data:     data,
		params:   params,
		delay:    delay,
	}

	go sendNotifications(notifier)

	return notifier, nil
}

// sendNotifications processes queued messages and sends them via the router.
// It applies the configured delay between sends and logs errors locally.
func sendNotifications(notifier *shoutrrrTypeNotifier) {
	for msg := range notifier.messages {
		time.Sleep(notifier.delay)
		errs := notifier.Router.Send(msg, notifier.params)

		for i, err := range errs {
			if err != nil {
				LocalLog.WithFields(logrus.Fields{
					"service": GetScheme(notifier.Urls[i]),
					"index":   i,
				}).WithError(err).Error("Failed to send shoutrrr notification")
			}
		}
	}

	notifier.done <- true
}

// buildMessage renders the notification message from the provided data.
func (n *shoutrrrTypeNotifier) buildMessage(data Data) (string, error) {
	var body bytes.Buffer

	if err := n.template.Execute(&body, data); err != nil {
		return "", fmt.Errorf("%w: %w", errTemplateFailed, err)
	}

	return body.String(), nil
}

// sendEntries queues a notification for the given entries and report.
// Empty messages are skipped: the default template renders nothing for a report without updates.
func (n *shoutrrrTypeNotifier) sendEntries(entries []*logrus.Entry, report types.Report) {
	msg, err := n.buildMessage(Data{n.data, entries, report})
	if err != nil {
		LocalLog.WithError(err).Error("Notification template error")

		return
	}

	if strings.TrimSpace(msg) == "" {
		LocalLog.Debug("Skipping notification due to empty message")

		return
	}

	n.messages <- msg
}

// StartNotification begins collecting log entries to send them as a batch.
func (n *shoutrrrTypeNotifier) StartNotification() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.entries == nil {
		n.entries = make([]*logrus.Entry, 0, initialEntriesCapacity)
	}
}

// SendNotification sends the collected entries together with report and ends the batch.
func (n *shoutrrrTypeNotifier) SendNotification(report types.Report) {
	n.mu.Lock()
	entries := n.entries
	n.entries = nil
	n.mu.Unlock()

	n.sendEntries(entries, report)
}

// Close prevents further messages from being queued and waits until all queued messages are sent.
func (n *shoutrrrTypeNotifier) Close() {
	close(n.messages)

	LocalLog.Info("Waiting for the notification goroutine to finish")

	<-n.done
}

// Levels returns the log levels that are collected.
func (n *shoutrrrTypeNotifier) Levels() []logrus.Level {
	return logrus.AllLevels[:n.logLevel+1]
}

// Fire collects a log entry when a batch is open.
// Entries written outside a batch are not forwarded.
func (n *shoutrrrTypeNotifier) Fire(entry *logrus.Entry) error {
	if entry.Data["notify"] == "no" {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.entries != nil {
		n.entries = append(n.entries, entry)
	}

	return nil
}

// initialEntriesCapacity is the initial capacity of a batch.
const initialEntriesCapacity = 10

// getShoutrrrTemplate resolves a common template name or parses tplString as a template body.
func getShoutrrrTemplate(tplString string) (*template.Template, error) {
	tplBase := template.New("").Funcs(templates.Funcs)

	if builtin, found := commonTemplates[tplString]; found {
		logrus.WithField(`template`, tplString).Debug(`Using common template`)
		tplString = builtin
	}

	if tplString == "" {
		return template.Must(tplBase.Parse(commonTemplates[`default`])), nil
	}

	tpl, err := tplBase.Parse(tplString)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errTemplateParseFailed, err)
	}

	return tpl, nil
}
