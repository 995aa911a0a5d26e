package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
)

// NewEnvCmd creates the env command.
func NewEnvCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "env <key> [value]",
		Short: "Set a project setting",
		Long: `Set a value in the project settings file.

The key is a dotted path and is stored lower case. The value is parsed as a
YAML literal; a missing value stores null.

Examples:
  pharaoh env foo_A 123               # foo_a: 123
  pharaoh env foo_B bar               # foo_b: bar
  pharaoh env foo_C "{baz: 123}"      # foo_c: {baz: 123}
  pharaoh env report.title "Q3"       # report.title: Q3
  pharaoh env foo_E                   # foo_e: null`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			var value any
			if len(args) == 2 {
				value = settings.ParseValue(args[1])
			}
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			if err := p.Settings().Put(args[0], value); err != nil {
				return cmdutil.Fail("setting value failed", err)
			}
			if err := p.Settings().Save(false); err != nil {
				return cmdutil.Fail("saving settings failed", err)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark(fmt.Sprintf("%s = %v",
				output.StyleNoun.Render(args[0]), value)))
			return nil
		},
	}
}
