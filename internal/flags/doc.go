// Package flags manages command-line flags and environment variables for dockupdate configuration.
// It configures the Docker connection, check scheduling, the HTTP API, logging and notifications
// via Cobra, pflag and Viper, with an optional .env file loaded through godotenv.
//
// Key components:
//   - RegisterDockerFlags: Adds Docker API client flags.
//   - RegisterSystemFlags: Adds check, HTTP API and logging flags.
//   - RegisterNotificationFlags: Adds notification settings.
//   - ReadFlags: Collects operational settings into Options.
//   - SetupLogging: Configures logrus based on flags.
//
// Usage example:
//
//	cmd := &cobra.Command{}
//	flags.SetDefaults()
//	flags.RegisterSystemFlags(cmd)
//	if err := flags.SetupLogging(cmd.PersistentFlags()); err != nil {
//	    logrus.WithError(err).Fatal("Logging setup failed")
//	}
package flags
