package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dockupdate/dockupdate/internal/actions"
	internalAPI "github.com/dockupdate/dockupdate/internal/api"
	"github.com/dockupdate/dockupdate/internal/flags"
	"github.com/dockupdate/dockupdate/internal/logging"
	"github.com/dockupdate/dockupdate/internal/meta"
	"github.com/dockupdate/dockupdate/internal/scheduling"
	"github.com/dockupdate/dockupdate/pkg/check"
	"github.com/dockupdate/dockupdate/pkg/container"
	"github.com/dockupdate/dockupdate/pkg/filters"
	"github.com/dockupdate/dockupdate/pkg/metrics"
	"github.com/dockupdate/dockupdate/pkg/notifications"
	"github.com/dockupdate/dockupdate/pkg/registry"
	"github.com/dockupdate/dockupdate/pkg/types"
)

// envFile is loaded into the environment before flags read their defaults.
const envFile = ".env"

// client is the Docker client used for the container inventory.
var client container.Client

// notifier is the notification sink for scheduled cycles and the startup message.
var notifier types.Notifier

// options holds the operational flags read during preRun.
var options flags.Options

// rootCmd represents the root command for the dockupdate CLI.
var rootCmd = NewRootCommand()

// RunConfig encapsulates the configuration parameters for runMain.
type RunConfig struct {
	// Command is the executed command, providing access to parsed flags.
	Command *cobra.Command
	// Filter selects the containers to check.
	Filter types.Filter
	// FilterDesc is a human-readable description of Filter.
	FilterDesc string
	// Checker resolves registry state for each container.
	Checker *check.Checker
	// Options are the operational flags.
	Options flags.Options
}

// NewRootCommand creates and configures the root command for the dockupdate CLI.
//
// Returns:
//   - *cobra.Command: The root command, ready for flag registration and execution.
func NewRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dockupdate",
		Short: "Reports image updates available for running Docker containers",
		Long: "\ndockupdate compares the images of running Docker containers with their registries " +
			"and reports which containers have a newer image or version available.",
		Run:    run,
		PreRun: preRun,
		Args:   cobra.ArbitraryArgs, // Positional arguments are container names.
	}
}

func init() {
	if err := flags.LoadEnvFile(envFile); err != nil {
		logrus.WithError(err).Warn("Failed to load environment file")
	}

	flags.SetDefaults()
	flags.RegisterDockerFlags(rootCmd)
	flags.RegisterSystemFlags(rootCmd)
	flags.RegisterNotificationFlags(rootCmd)
}

// Execute runs the root command and exits on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("Failed to execute root command")
	}
}

// preRun configures logging, reads flags, and creates the Docker client and notifier.
func preRun(cmd *cobra.Command, _ []string) {
	flagsSet := cmd.PersistentFlags()

	if err := flags.ProcessFlagAliases(flagsSet); err != nil {
		logrus.WithError(err).Fatal("Failed to process flag aliases")
	}

	if err := flags.SetupLogging(flagsSet); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logging")
	}

	if err := flags.GetSecretsFromFiles(cmd); err != nil {
		logrus.WithError(err).Fatal("Failed to read secrets from files")
	}

	var err error

	options, err = flags.ReadFlags(cmd)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to read flags")
	}

	if err := flags.EnvConfig(cmd); err != nil {
		logrus.WithError(err).Fatal("Failed to configure Docker environment")
	}

	client, err = container.NewClient(container.ClientOptions{
		IncludeStopped:    options.IncludeStopped,
		IncludeRestarting: options.IncludeRestarting,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create Docker client")
	}

	notifier, err = notifications.NewNotifier(cmd)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize notifications")
	}

	notifier.AddLogHook()
}

// run builds the filter and checker from the parsed flags and hands over to runMain.
//
// Parameters:
//   - c: The executed command.
//   - names: Container names given as positional arguments.
func run(c *cobra.Command, names []string) {
	filter, filterDesc := filters.BuildFilter(names, options.DisableContainers, nil, options.LabelEnable)

	cfg := RunConfig{
		Command:    c,
		Filter:     filter,
		FilterDesc: filterDesc,
		Checker:    NewChecker(options),
		Options:    options,
	}

	if exitCode := runMain(c.Context(), cfg); exitCode != 0 {
		logrus.WithField("exit_code", exitCode).Debug("Exiting with non-zero status")
		os.Exit(exitCode)
	}
}

// NewChecker creates the registry resolver configured by opts.
//
// Parameters:
//   - opts: Operational flags supplying timeout and concurrency.
//
// Returns:
//   - *check.Checker: Checker reporting registry failures to the default metrics.
func NewChecker(opts flags.Options) *check.Checker {
	registry.UserAgent = meta.UserAgent

	registryClient := registry.NewClient()
	registryClient.Timeout = opts.RegistryTimeout

	return check.New(registryClient,
		check.WithConcurrency(opts.Concurrency),
		check.WithFailureRecorder(metrics.Default()),
	)
}

// runMain executes one check in run-once mode, or serves the HTTP API alongside the
// background scheduler until shutdown.
//
// Parameters:
//   - ctx: Parent context, may be nil.
//   - cfg: Run configuration.
//
// Returns:
//   - int: Exit code, 0 on success.
func runMain(ctx context.Context, cfg RunConfig) int {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runCheck := func(ctx context.Context) {
		actions.RunCheckWithNotifications(ctx, client, cfg.Checker, cfg.Filter, notifier)
	}

	if cfg.Options.RunOnce {
		logging.WriteStartupMessage(cfg.Command, time.Time{}, cfg.FilterDesc, client, notifier, meta.Version)
		runCheck(ctx)

		if notifier != nil {
			notifier.Close()
		}

		return 0
	}

	apiOptions := internalAPI.Options{
		Host:          cfg.Options.APIHost,
		Port:          cfg.Options.APIPort,
		Token:         cfg.Options.APIToken,
		EnableMetrics: cfg.Options.EnableMetrics,
		CheckInterval: cfg.Options.CheckInterval,
		Version:       meta.Version,
	}
	statusFn := internalAPI.StatusFunc(client, cfg.Checker, cfg.Filter)

	if cfg.Options.CheckInterval <= 0 {
		logging.WriteStartupMessage(cfg.Command, time.Time{}, cfg.FilterDesc, client, notifier, meta.Version)

		if err := internalAPI.SetupAndStartAPI(ctx, apiOptions, statusFn, true); err != nil {
			return 1
		}

		return 0
	}

	if err := internalAPI.SetupAndStartAPI(ctx, apiOptions, statusFn, false); err != nil {
		return 1
	}

	writeStartupMessage := func(nextRun time.Time) {
		logging.WriteStartupMessage(cfg.Command, nextRun, cfg.FilterDesc, client, notifier, meta.Version)
	}

	interval := time.Duration(cfg.Options.CheckInterval) * time.Second

	if err := scheduling.RunChecksOnSchedule(
		ctx,
		scheduling.NewLock(),
		interval,
		writeStartupMessage,
		runCheck,
		notifier,
	); err != nil {
		logrus.WithError(err).Error("Failed to schedule checks")

		return 1
	}

	return 0
}
