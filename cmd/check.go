package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"stratum/internal/config"
	"stratum/internal/formatting"
	"stratum/internal/legacy"
	"stratum/internal/plugins"
	"stratum/internal/server"
)

var (
	checkConfigPath string
	checkQuiet      bool
)

// checkCmd validates the configuration and plugin manifests without
// starting the server.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and plugin manifests",
	Long: `Validates the configuration file against every registered schema and
scans the plugin directories for manifest or dependency problems, without
starting any service or opening any connection.

Exit code 0 means the server would pass the same validation during setup.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkConfigPath, "config", "stratum.yaml", "Configuration file path")
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "Suppress tables, report problems only")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var spin *spinner.Spinner
	if !checkQuiet {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		spin.Suffix = " Validating configuration..."
		spin.Start()
	}

	cfg := config.NewService(checkConfigPath)
	srv := server.New(cfg)
	if err := srv.RegisterConfigSchemas(); err != nil {
		stopSpinner(spin)
		return err
	}
	if err := cfg.Load(); err != nil {
		stopSpinner(spin)
		return fmt.Errorf("load %s: %w", checkConfigPath, err)
	}

	validationErr := cfg.Validate()
	stopSpinner(spin)

	if validationErr != nil {
		var errs config.ValidationErrors
		if errors.As(validationErr, &errs) {
			formatting.RenderValidationErrors(out, errs)
			return fmt.Errorf("configuration is invalid (%d problems)", len(errs))
		}
		return validationErr
	}

	if !checkQuiet {
		formatting.RenderNamespaces(out, cfg.Namespaces())
	}

	section, err := cfg.Section(config.NamespacePlugins)
	if err != nil {
		return err
	}
	pluginsCfg := section.(*config.PluginsConfig)

	discovery := plugins.NewService()
	graph, err := discovery.Discover(context.Background(), plugins.DiscoverDeps{
		Dirs:           append([]string{pluginsCfg.Dir}, pluginsCfg.AdditionalDirs...),
		LegacyBridgeID: legacy.BridgeID,
	})
	if err != nil {
		return err
	}

	if !checkQuiet {
		formatting.RenderPluginGraph(out, graph)
		formatting.Success(out, "configuration and %d plugin manifests are valid", graph.Len()-1)
	}
	return nil
}

func stopSpinner(s *spinner.Spinner) {
	if s != nil {
		s.Stop()
	}
}
