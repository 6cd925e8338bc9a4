// Package cmd contains the dockupdate command-line interface.
//
// The root command reads configuration from flags, the environment and an optional .env file,
// then either performs a single check (--run-once) or serves the HTTP API with background
// checks every --check-interval seconds. Positional arguments restrict the check to the named
// containers.
//
// Usage example:
//
//	cmd.Execute()
package cmd
