package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point when stratum is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "Pluggable platform server backed by Elasticsearch",
	Long: `stratum is a pluggable platform server. It orchestrates a fixed set of
core services (configuration, HTTP, data-store clients, saved objects,
runtime settings, capabilities) through a setup/start/stop lifecycle and
loads plugins discovered from the configured plugin directories.`,
	SilenceUsage: true,
}

// SetVersion injects the build version, typically from main via -ldflags.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the injected build version.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the CLI. Called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "stratum version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
