// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pharaoh-reports/pharaoh/internal/cmd/asset"
	"github.com/pharaoh-reports/pharaoh/internal/cmd/component"
	"github.com/pharaoh-reports/pharaoh/internal/cmd/settings"
	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// NewRootCmd creates the root command for the pharaoh CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&cmdtypes.GlobalConfig{})
}

func newRootCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		timestampsFlag bool
		logLevelFlag   string
	)

	rootCmd := &cobra.Command{
		Use:   "pharaoh",
		Short: "Report generation orchestrator",
		Long: `Pharaoh assembles reports from components, generated assets and
document templates.

A project holds a list of components. Each component carries asset scripts
that produce plots, tables and other artifacts when running 'pharaoh generate'.
'pharaoh build' renders the report documents, which look up those assets, and
runs the configured report builder.

Examples:
  pharaoh new -p my-report
  pharaoh add -p my-report intro -c "{test_name: dummy}"
  pharaoh generate -p my-report
  pharaoh build -p my-report
  pharaoh archive -p my-report`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			logCfg := output.LogConfig{
				Verbose: cfg.Verbose,
				Level:   logLevelFlag,
			}
			if c.Flags().Changed("timestamps") {
				logCfg.Timestamps = output.BoolPtr(timestampsFlag)
			}
			output.SetupLogging(logCfg)
			output.Debug("initializing CLI", "project", cmdutil.ProjectPath(cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfg.ProjectFlag, "project", "p", "",
		"Path to the project directory (env: PHARAOH_PROJECT, default: search from working directory)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level until the project's logging.level setting applies (debug, info, warning, error)")

	rootCmd.AddCommand(NewNewCmd(cfg))
	rootCmd.AddCommand(NewAddCmd(cfg))
	rootCmd.AddCommand(NewAddTemplateCmd(cfg))
	rootCmd.AddCommand(NewUpdateResourceCmd(cfg))
	rootCmd.AddCommand(NewRemoveCmd(cfg))
	rootCmd.AddCommand(NewEnvCmd(cfg))
	rootCmd.AddCommand(NewGenerateCmd(cfg))
	rootCmd.AddCommand(NewBuildCmd(cfg))
	rootCmd.AddCommand(NewArchiveCmd(cfg))
	rootCmd.AddCommand(NewInfoCmd(cfg))
	rootCmd.AddCommand(NewVersionCmd(cfg))
	rootCmd.AddCommand(component.NewComponentCmd(cfg))
	rootCmd.AddCommand(settings.NewSettingsCmd(cfg))
	rootCmd.AddCommand(asset.NewAssetCmd(cfg))

	return rootCmd
}
