// Package flags manages command-line flags and environment variables for dockupdate configuration.
package flags

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DockerAPIMinVersion specifies the minimum Docker API version required by dockupdate.
const DockerAPIMinVersion string = "1.44"

// DefaultCheckIntervalSeconds is the interval between background checks and the client refresh hint.
const DefaultCheckIntervalSeconds = 300

// DefaultPort is the default HTTP API port.
const DefaultPort = "3456"

// defaultConcurrency bounds how many containers are resolved at once.
const defaultConcurrency = 8

// defaultRegistryTimeout is the per-request registry timeout.
const defaultRegistryTimeout = 5 * time.Second

// errInvalidLogFormat indicates an invalid log format was specified.
var errInvalidLogFormat = errors.New("invalid log format specified")

// errInvalidLogLevel indicates an invalid log level was specified.
var errInvalidLogLevel = errors.New("invalid log level specified")

// errSetEnvFailed indicates a failure to set an environment variable.
var errSetEnvFailed = errors.New("failed to set environment variable")

// errOpenFileFailed indicates a failure to open a file for reading secrets.
var errOpenFileFailed = errors.New("failed to open secret file")

// errCloseFileFailed indicates a failure to close a file after reading secrets.
var errCloseFileFailed = errors.New("failed to close secret file")

// errReplaceSliceFailed indicates a failure to replace a slice value in a flag.
var errReplaceSliceFailed = errors.New("failed to replace slice value in flag")

// errReadFileFailed indicates a failure to read a file’s contents.
var errReadFileFailed = errors.New("failed to read secret file")

// errSetFlagFailed indicates a failure to set or read a flag’s value.
var errSetFlagFailed = errors.New("failed to set flag value")

// errInvalidFlagName indicates an invalid flag name was provided.
var errInvalidFlagName = errors.New("invalid flag name provided")

// errNotSliceValue indicates a flag does not support slice values.
var errNotSliceValue = errors.New("flag does not support slice values")

// errLoadEnvFileFailed indicates the .env file exists but could not be parsed.
var errLoadEnvFileFailed = errors.New("failed to load env file")

// secretFs is the filesystem secret files are read from.
var secretFs = afero.NewOsFs()

// LoadEnvFile reads KEY=VALUE pairs from path into the process environment.
// Variables already set take precedence and a missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("%w: %s: %w", errLoadEnvFileFailed, path, err)
	}

	logrus.WithField("path", path).Debug("Loaded environment file")

	return nil
}

// RegisterDockerFlags adds flags used directly by the Docker API client to the root command.
func RegisterDockerFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.StringP("host", "H", envString("DOCKER_HOST"), "daemon socket to connect to")
	flags.BoolP("tlsverify", "v", envBool("DOCKER_TLS_VERIFY"), "use TLS and verify the remote")
	flags.StringP(
		"api-version",
		"a",
		envString("DOCKER_API_VERSION"),
		"api version to use by docker client",
	)
}

// RegisterSystemFlags adds flags that control checking, the HTTP API and logging.
func RegisterSystemFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.IntP(
		"check-interval",
		"i",
		envCheckInterval("CHECK_INTERVAL"),
		"Seconds between background checks, 0 disables them")

	flags.IntP(
		"concurrency",
		"",
		envInt("DOCKUPDATE_CONCURRENCY"),
		"Number of containers resolved in parallel")

	flags.DurationP(
		"registry-timeout",
		"",
		envDuration("DOCKUPDATE_REGISTRY_TIMEOUT"),
		"Timeout for each registry request")

	flags.BoolP(
		"no-startup-message",
		"",
		envBool("DOCKUPDATE_NO_STARTUP_MESSAGE"),
		"Prevents dockupdate from sending a startup message")

	flags.BoolP(
		"label-enable",
		"e",
		envBool("DOCKUPDATE_LABEL_ENABLE"),
		"Only check containers where the com.dockupdate.enable label is true")

	flags.StringSliceP(
		"disable-containers",
		"x",
		splitList(envString("DOCKUPDATE_DISABLE_CONTAINERS")),
		"Comma-separated list of containers to exclude from checks")

	flags.StringP(
		"log-format",
		"l",
		envString("DOCKUPDATE_LOG_FORMAT"),
		"Sets what logging format to use for console output. Possible values: Auto, LogFmt, Pretty, JSON",
	)

	flags.StringP(
		"log-level",
		"",
		envString("DOCKUPDATE_LOG_LEVEL"),
		"The maximum log level that will be written to STDERR. Possible values: panic, fatal, error, warn, info, debug or trace",
	)

	flags.BoolP(
		"debug",
		"d",
		envBool("DOCKUPDATE_DEBUG"),
		"Enable debug mode with verbose logging")

	flags.BoolP(
		"trace",
		"",
		envBool("DOCKUPDATE_TRACE"),
		"Enable trace mode with very verbose logging")

	flags.BoolP(
		"no-color",
		"",
		viper.IsSet("NO_COLOR"),
		"Disable ANSI color escape codes in log output")

	flags.BoolP(
		"run-once",
		"R",
		envBool("DOCKUPDATE_RUN_ONCE"),
		"Run one check now and exit")

	flags.BoolP(
		"include-restarting",
		"",
		envBool("DOCKUPDATE_INCLUDE_RESTARTING"),
		"Will also include restarting containers")

	flags.BoolP(
		"include-stopped",
		"S",
		envBool("DOCKUPDATE_INCLUDE_STOPPED"),
		"Will also include created and exited containers")

	flags.StringP(
		"http-api-host",
		"",
		envString("DOCKUPDATE_HTTP_API_HOST"),
		"Host to bind the HTTP API to (default: all interfaces)")

	flags.StringP(
		"http-api-port",
		"p",
		envString("PORT"),
		"Port to bind the HTTP API to")

	flags.StringP(
		"http-api-token",
		"",
		envString("DOCKUPDATE_HTTP_API_TOKEN"),
		"Sets an authentication token to HTTP API requests")

	flags.BoolP(
		"http-api-metrics",
		"",
		envBool("DOCKUPDATE_HTTP_API_METRICS"),
		"Serves Prometheus metrics on /metrics")

	flags.StringP(
		"porcelain",
		"P",
		envString("DOCKUPDATE_PORCELAIN"),
		`Write session results to stdout using a stable versioned format. Supported values: "v1"`)
}

// RegisterNotificationFlags adds flags for configuring dockupdate notifications to the root command.
func RegisterNotificationFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.StringArrayP(
		"notification-url",
		"",
		envStringSlice("DOCKUPDATE_NOTIFICATION_URL"),
		"The shoutrrr URL to send notifications to")

	flags.String(
		"notifications-level",
		envString("DOCKUPDATE_NOTIFICATIONS_LEVEL"),
		"The log level included in notifications. Possible values: panic, fatal, error, warn, info or debug",
	)

	flags.IntP(
		"notifications-delay",
		"",
		envInt("DOCKUPDATE_NOTIFICATIONS_DELAY"),
		"Delay before sending notifications, expressed in seconds")

	flags.StringP(
		"notifications-hostname",
		"",
		envString("DOCKUPDATE_NOTIFICATIONS_HOSTNAME"),
		"Custom hostname for notification titles")

	flags.StringP(
		"notification-template",
		"",
		envString("DOCKUPDATE_NOTIFICATION_TEMPLATE"),
		"The shoutrrr text/template for the messages")

	flags.StringP(
		"notification-title-tag",
		"",
		envString("DOCKUPDATE_NOTIFICATION_TITLE_TAG"),
		"Title prefix tag for notifications")

	flags.Bool("notification-skip-title",
		envBool("DOCKUPDATE_NOTIFICATION_SKIP_TITLE"),
		"Do not pass the title param to notifications")

	flags.Bool(
		"notification-log-stdout",
		envBool("DOCKUPDATE_NOTIFICATION_LOG_STDOUT"),
		"Write notification logs to stdout instead of logging (to stderr)")
}

// envString retrieves a string value from an environment variable via Viper.
func envString(key string) string {
	viper.MustBindEnv(key)

	return viper.GetString(key)
}

// envStringSlice retrieves a string slice from an environment variable via Viper.
func envStringSlice(key string) []string {
	viper.MustBindEnv(key)

	return viper.GetStringSlice(key)
}

// envInt retrieves an integer value from an environment variable via Viper.
func envInt(key string) int {
	viper.MustBindEnv(key)

	return viper.GetInt(key)
}

// envBool retrieves a boolean value from an environment variable via Viper.
func envBool(key string) bool {
	viper.MustBindEnv(key)

	return viper.GetBool(key)
}

// envDuration retrieves a duration value from an environment variable via Viper.
func envDuration(key string) time.Duration {
	viper.MustBindEnv(key)

	return viper.GetDuration(key)
}

// envCheckInterval reads the check interval, falling back to the default for
// values that are not integers or are negative.
func envCheckInterval(key string) int {
	viper.MustBindEnv(key)

	return ParseCheckInterval(viper.GetString(key))
}

// ParseCheckInterval converts a raw interval in seconds.
// Empty, non-numeric and negative values yield DefaultCheckIntervalSeconds; 0 is kept.
func ParseCheckInterval(raw string) int {
	seconds, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || seconds < 0 {
		if raw != "" {
			logrus.WithField("value", raw).Warn("Invalid check interval, using default")
		}

		return DefaultCheckIntervalSeconds
	}

	return seconds
}

// splitList splits a comma or space separated list, dropping empty items.
func splitList(raw string) []string {
	items := regexp.MustCompile("[, ]+").Split(raw, -1)
	result := make([]string, 0, len(items))

	for _, item := range items {
		if item != "" {
			result = append(result, item)
		}
	}

	return result
}

// SetDefaults configures default values for environment variables.
func SetDefaults() {
	viper.AutomaticEnv()
	viper.SetDefault("DOCKER_HOST", "unix:///var/run/docker.sock")
	viper.SetDefault("DOCKER_API_VERSION", DockerAPIMinVersion)
	viper.SetDefault("CHECK_INTERVAL", strconv.Itoa(DefaultCheckIntervalSeconds))
	viper.SetDefault("PORT", DefaultPort)
	viper.SetDefault("DOCKUPDATE_CONCURRENCY", defaultConcurrency)
	viper.SetDefault("DOCKUPDATE_REGISTRY_TIMEOUT", defaultRegistryTimeout)
	viper.SetDefault("DOCKUPDATE_NOTIFICATION_URL", []string{})
	viper.SetDefault("DOCKUPDATE_NOTIFICATIONS_LEVEL", "info")
	viper.SetDefault("DOCKUPDATE_LOG_LEVEL", "info")
	viper.SetDefault("DOCKUPDATE_LOG_FORMAT", "auto")
}

// EnvConfig sets environment variables based on Docker-related flags.
// It configures the Docker client’s environment, returning an error if flag retrieval fails.
func EnvConfig(cmd *cobra.Command) error {
	var err error

	var host string

	var tls bool

	var version string

	flags := cmd.PersistentFlags()

	if host, err = flags.GetString("host"); err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if tls, err = flags.GetBool("tlsverify"); err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if version, err = flags.GetString("api-version"); err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if err = setEnvOptStr("DOCKER_HOST", host); err != nil {
		return err
	}

	if err = setEnvOptBool("DOCKER_TLS_VERIFY", tls); err != nil {
		return err
	}

	if err = setEnvOptStr("DOCKER_API_VERSION", version); err != nil {
		return err
	}

	return nil
}

// Options holds the operational settings read from flags.
type Options struct {
	CheckInterval     int
	Concurrency       int
	RegistryTimeout   time.Duration
	RunOnce           bool
	IncludeStopped    bool
	IncludeRestarting bool
	LabelEnable       bool
	DisableContainers []string
	APIHost           string
	APIPort           string
	APIToken          string
	EnableMetrics     bool
	NoStartupMessage  bool
}

// ReadFlags retrieves the operational flags used in dockupdate’s main flow.
//
// Parameters:
//   - cmd: Root command with system flags registered.
//
// Returns:
//   - Options: Parsed settings.
//   - error: Non-nil if a flag is missing.
func ReadFlags(cmd *cobra.Command) (Options, error) {
	flags := cmd.PersistentFlags()

	var opts Options

	var errs []error

	get := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error

	opts.CheckInterval, err = flags.GetInt("check-interval")
	get(err)
	opts.Concurrency, err = flags.GetInt("concurrency")
	get(err)
	opts.RegistryTimeout, err = flags.GetDuration("registry-timeout")
	get(err)
	opts.RunOnce, err = flags.GetBool("run-once")
	get(err)
	opts.IncludeStopped, err = flags.GetBool("include-stopped")
	get(err)
	opts.IncludeRestarting, err = flags.GetBool("include-restarting")
	get(err)
	opts.LabelEnable, err = flags.GetBool("label-enable")
	get(err)
	opts.DisableContainers, err = flags.GetStringSlice("disable-containers")
	get(err)
	opts.APIHost, err = flags.GetString("http-api-host")
	get(err)
	opts.APIPort, err = flags.GetString("http-api-port")
	get(err)
	opts.APIToken, err = flags.GetString("http-api-token")
	get(err)
	opts.EnableMetrics, err = flags.GetBool("http-api-metrics")
	get(err)
	opts.NoStartupMessage, err = flags.GetBool("no-startup-message")
	get(err)

	if len(errs) > 0 {
		return Options{}, fmt.Errorf("%w: %w", errSetFlagFailed, errors.Join(errs...))
	}

	if opts.CheckInterval < 0 {
		opts.CheckInterval = DefaultCheckIntervalSeconds
	}

	if opts.APIPort == "" {
		opts.APIPort = DefaultPort
	}

	return opts, nil
}

// setEnvOptStr sets an environment variable to a specified string value if needed.
// It skips setting if the value is empty or matches the current environment, returning an error if the set fails.
func setEnvOptStr(env string, opt string) error {
	if opt == "" || opt == os.Getenv(env) {
		return nil
	}

	if err := os.Setenv(env, opt); err != nil {
		return fmt.Errorf("%w: %s: %w", errSetEnvFailed, env, err)
	}

	return nil
}

// setEnvOptBool sets an environment variable to "1" if the boolean is true.
func setEnvOptBool(env string, opt bool) error {
	if opt {
		return setEnvOptStr(env, "1")
	}

	return nil
}

// GetSecretsFromFiles replaces flag values with file contents if they reference files.
func GetSecretsFromFiles(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()

	secrets := []string{
		"notification-url",
		"http-api-token",
	}
	for _, secret := range secrets {
		if err := getSecretFromFile(flags, secret); err != nil {
			return fmt.Errorf("failed to get secret from flag %v: %w", secret, err)
		}
	}

	return nil
}

// getSecretFromFile updates a flag’s value with file contents if it references a file.
// It handles both string and slice flags, returning an error if file operations fail.
func getSecretFromFile(flags *pflag.FlagSet, secret string) error {
	flag := flags.Lookup(secret)
	if flag == nil {
		return fmt.Errorf("%w: %q", errInvalidFlagName, secret)
	}

	if sliceValue, ok := flag.Value.(pflag.SliceValue); ok {
		oldValues := sliceValue.GetSlice()
		values := make([]string, 0, len(oldValues))

		for _, value := range oldValues {
			if value != "" && isFilePath(value) {
				file, err := secretFs.Open(value)
				if err != nil {
					return fmt.Errorf("%w: %w", errOpenFileFailed, err)
				}

				scanner := bufio.NewScanner(file)
				for scanner.Scan() {
					line := scanner.Text()
					if line == "" {
						continue
					}

					values = append(values, line)
				}

				if err := file.Close(); err != nil {
					return fmt.Errorf("%w: %w", errCloseFileFailed, err)
				}
			} else {
				values = append(values, value)
			}
		}

		if err := sliceValue.Replace(values); err != nil {
			return fmt.Errorf("%w: %w", errReplaceSliceFailed, err)
		}

		return nil
	}

	value := flag.Value.String()
	if value != "" && isFilePath(value) {
		content, err := afero.ReadFile(secretFs, value)
		if err != nil {
			return fmt.Errorf("%w: %w", errReadFileFailed, err)
		}

		if err := flags.Set(secret, strings.TrimSpace(string(content))); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	return nil
}

// isFilePath determines if a string likely represents a file path.
// It checks for file existence, avoiding false positives from URLs or invalid Windows paths.
func isFilePath(path string) bool {
	firstColon := strings.IndexRune(path, ':')
	if firstColon != 1 && firstColon != -1 {
		// If ':' exists but isn’t the second character, it’s likely not a file path (e.g., URLs).
		return false
	}

	_, err := secretFs.Stat(path)

	return !errors.Is(err, os.ErrNotExist)
}

// ProcessFlagAliases synchronizes flag values based on helper flags.
// Porcelain output routes the per-cycle summary to stdout, and debug/trace raise the log level.
func ProcessFlagAliases(flags *pflag.FlagSet) error {
	porcelain, err := flags.GetString("porcelain")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if porcelain != "" {
		if porcelain != "v1" {
			return fmt.Errorf("%w: unknown porcelain version %q, supported values: \"v1\"", errSetFlagFailed, porcelain)
		}

		if err = appendFlagValue(flags, "notification-url", "logger://"); err != nil {
			return err
		}

		setFlagIfDefault(flags, "notification-log-stdout", "true")
		setFlagIfDefault(flags, "notification-template", "porcelain."+porcelain+".summary")
	}

	if flagIsEnabled(flags, "debug") {
		if err := flags.Set("log-level", "debug"); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	if flagIsEnabled(flags, "trace") {
		if err := flags.Set("log-level", "trace"); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	return nil
}

// SetupLogging configures the global logger based on log-related flags.
// It sets the log format and level, returning an error for invalid configurations.
func SetupLogging(flags *pflag.FlagSet) error {
	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if err := configureLogFormat(logFormat, noColor); err != nil {
		return err
	}

	rawLogLevel, err := flags.GetString("log-level")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	logLevel, err := logrus.ParseLevel(rawLogLevel)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	logrus.SetLevel(logLevel)

	return nil
}

// configureLogFormat sets the logrus formatter based on the specified format and color preference.
// It returns an error if the format is invalid.
func configureLogFormat(logFormat string, noColor bool) error {
	switch strings.ToLower(logFormat) {
	case "auto", "":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors:             noColor,
			EnvironmentOverrideColors: true,
		})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "logfmt":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case "pretty":
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !noColor,
			FullTimestamp: false,
		})
	default:
		return fmt.Errorf("%w: %s", errInvalidLogFormat, logFormat)
	}

	return nil
}

// flagIsEnabled checks if a boolean flag is set to true.
// Undefined flags count as disabled.
func flagIsEnabled(flags *pflag.FlagSet, name string) bool {
	value, err := flags.GetBool(name)
	if err != nil {
		logrus.WithField("flag", name).Debug("Flag is not defined")

		return false
	}

	return value
}

// appendFlagValue appends values to a slice-type flag.
// It returns an error if the flag is invalid or not a slice.
func appendFlagValue(flags *pflag.FlagSet, name string, values ...string) error {
	flag := flags.Lookup(name)
	if flag == nil {
		return fmt.Errorf("%w: %q", errInvalidFlagName, name)
	}

	flagValues, ok := flag.Value.(pflag.SliceValue)
	if !ok {
		return fmt.Errorf("%w: %q", errNotSliceValue, name)
	}

	for _, value := range values {
		if err := flagValues.Append(value); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	return nil
}

// setFlagIfDefault sets a flag’s value if it hasn’t been explicitly changed.
// It logs an error if the set operation fails but continues execution.
func setFlagIfDefault(flags *pflag.FlagSet, name string, value string) {
	if flags.Changed(name) {
		return
	}

	if err := flags.Set(name, value); err != nil {
		logrus.Errorf("Failed to set flag: %v", err)
	}
}
