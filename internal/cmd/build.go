package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// NewBuildCmd creates the build command.
func NewBuildCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var catchFlag bool

	c := &cobra.Command{
		Use:   "build",
		Short: "Build the report",
		Long: `Render the report documents and run the report builder.

Documents below report-project are rendered with the generated assets into
report-build. If report.builder_command is set, it runs afterwards and its
exit status becomes the build status.

Examples:
  pharaoh build
  pharaoh -p path/to/my/project build`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}

			var status int
			err = output.RunWithSpinner(c.Context(), func() error {
				var buildErr error
				status, buildErr = p.BuildReport(c.Context(), catchFlag)
				return buildErr
			}, output.WithTitle("Building report..."))
			if err != nil {
				return cmdutil.Fail("build failed", err)
			}
			if status != 0 {
				err := fmt.Errorf("the report build returned with non-zero exit code %d, refer to the log output for details: %w",
					status, oerrors.ErrBuild)
				return cmdutil.Fail("build failed", err)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Report built in "+p.ReportBuild()))
			return nil
		},
	}

	c.Flags().BoolVar(&catchFlag, "catch-errors", true,
		"Log render and builder failures instead of aborting with the raw error")
	return c
}

// NewArchiveCmd creates the archive command.
func NewArchiveCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var destFlag string

	c := &cobra.Command{
		Use:   "archive",
		Short: "Archive the built report into a zip file",
		Long: `Archive report-build into a zip file.

Without --dest the archive is written to the project root and named after
the report.archive_name setting. A destination without extension is treated
as a directory.

Examples:
  pharaoh archive
  pharaoh archive -d archives/myarchive.zip`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			path, err := p.ArchiveReport(destFlag)
			if err != nil {
				return cmdutil.Fail("archiving report failed", err)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Archived report to "+path))
			return nil
		},
	}

	c.Flags().StringVarP(&destFlag, "dest", "d", "", "Archive path: a directory or a file with .zip extension")
	return c
}
