package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/generate"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/project"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var ff cmdutil.FilterFlags

	c := &cobra.Command{
		Use:   "generate",
		Short: "Generate assets",
		Long: `Run the asset scripts of all components or of a selected subset.

The asset directory of every selected component is cleared first. Scripts run
in parallel, limited by the asset_gen.worker_processes setting. A failing
script does not stop the others; all failures are reported at the end.

Examples:
  pharaoh generate
  pharaoh generate -f "dummy[12]"
  pharaoh generate -f dummy1 -f dummy2`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}

			var results []generate.Result
			err = output.RunWithSpinner(c.Context(), func() error {
				var genErr error
				results, genErr = p.GenerateAssets(c.Context(), project.GenerateOptions{Filters: ff.Filters})
				return genErr
			}, output.WithTitle("Generating assets..."))

			cmdutil.WriteResults(c.OutOrStdout(), results)
			if err != nil {
				cmdutil.PrintGenerationError(err)
				return &oerrors.ExitError{Err: err, Code: oerrors.ExitCodeFromError(err), Printed: true}
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark(fmt.Sprintf("Generated assets (%d units)", len(results))))
			return nil
		},
	}

	ff.AddTo(c, "Regular expression matched against the start of component names (can be repeated)")
	return c
}
