package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"stratum/internal/app"
)

var (
	serveDebug      bool
	serveConfigPath string
	serveWatch      bool
)

// serveCmd starts the stratum server and blocks until shutdown.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stratum server",
	Long: `Starts the stratum server in the foreground.

The server validates its configuration, discovers plugins, brings every
core service up in dependency order and then accepts HTTP traffic. It runs
until interrupted (SIGINT/SIGTERM) and shuts down gracefully.

With --watch the configuration file is monitored and validated changes are
applied to running services without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, false, serveConfigPath, serveWatch)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "stratum.yaml", "Configuration file path")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload configuration on file changes")
}
