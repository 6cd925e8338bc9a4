// Package scheduling runs dockupdate's background check cycles.
// It drives a cron scheduler at a fixed interval, keeps cycles from overlapping, and shuts down
// gracefully on signals or context cancellation.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/pkg/metrics"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// errInvalidInterval indicates a non-positive check interval.
var errInvalidInterval = errors.New("check interval must be positive")

// NewLock returns a lock channel holding its single token.
func NewLock() chan bool {
	lock := make(chan bool, 1)
	lock <- true

	return lock
}

// Spec converts an interval into a cron "@every" specification.
//
// Parameters:
//   - interval: Time between cycles.
//
// Returns:
//   - string: Cron specification (e.g. "@every 5m0s").
//   - error: Non-nil if the interval is not positive.
func Spec(interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("%w: %s", errInvalidInterval, interval)
	}

	return "@every " + interval.String(), nil
}

// WaitForRunningCheck waits for any currently running check cycle to complete before shutdown.
// It checks the lock channel status and blocks with a timeout if a cycle is in progress.
//
// Parameters:
//   - ctx: The context for cancellation, allowing early shutdown on context timeout.
//   - lock: The channel used to synchronize cycles, ensuring only one runs at a time.
func WaitForRunningCheck(ctx context.Context, lock chan bool) {
	const checkWaitTimeout = 60 * time.Second

	logrus.Debug("Checking lock status before shutdown.")

	if len(lock) == 0 {
		select {
		case v := <-lock:
			lock <- v

			logrus.Debug("Lock acquired, check finished.")
		case <-time.After(checkWaitTimeout):
			logrus.Warn("Timeout waiting for running check to finish, proceeding with shutdown.")
		case <-ctx.Done():
			logrus.Warn("Context cancelled while waiting for running check.")
		}
	} else {
		logrus.Debug("No check running, lock available.")
	}

	logrus.Debug("Lock check completed.")
}

// RunChecksOnSchedule runs check cycles at a fixed interval until ctx ends or a signal arrives.
//
// Ticks arriving while a cycle still holds the lock are skipped and counted as skipped cycles.
// The startup message receives the first scheduled run time before the scheduler starts.
//
// Parameters:
//   - ctx: The context controlling the scheduler's lifecycle.
//   - lock: A channel ensuring only one cycle runs at a time, or nil to create a new one.
//   - interval: Time between cycles.
//   - writeStartupMessage: Function logging startup information with the first run time, may be nil.
//   - runCheck: Function performing one check cycle; it records its own metrics.
//   - notifier: The notifier closed on shutdown, may be nil.
//
// Returns:
//   - error: An error if scheduling fails, nil on clean shutdown.
func RunChecksOnSchedule(
	ctx context.Context,
	lock chan bool,
	interval time.Duration,
	writeStartupMessage func(nextRun time.Time),
	runCheck func(ctx context.Context),
	notifier types.Notifier,
) error {
	spec, err := Spec(interval)
	if err != nil {
		return fmt.Errorf("failed to schedule checks: %w", err)
	}

	if lock == nil {
		lock = NewLock()
	}

	scheduler := cron.New()

	checkFunc := func() {
		select {
		case v := <-lock:
			defer func() { lock <- v }()

			runCheck(ctx)
			logrus.Debug("Check cycle completed")
		default:
			metrics.Default().RegisterCheck(nil)
			logrus.Debug("Skipped another check already running.")
		}

		nextRuns := scheduler.Entries()
		if len(nextRuns) > 0 {
			logrus.Debug("Scheduled next run: " + nextRuns[0].Next.String())
		}
	}

	if err := scheduler.AddFunc(spec, checkFunc); err != nil {
		return fmt.Errorf("failed to schedule checks: %w", err)
	}

	if writeStartupMessage != nil {
		writeStartupMessage(scheduler.Entries()[0].Schedule.Next(time.Now()))
	}

	scheduler.Start()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case <-ctx.Done():
		logrus.Debug("Context canceled, stopping scheduler...")
	case <-interrupt:
		logrus.Debug("Received interrupt signal, stopping scheduler...")
	}

	scheduler.Stop()
	logrus.Debug("Waiting for running check to be finished...")

	WaitForRunningCheck(ctx, lock)

	if notifier != nil {
		notifier.Close()
	}

	logrus.Debug("Scheduler stopped.")

	return nil
}
