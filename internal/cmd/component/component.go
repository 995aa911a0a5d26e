// Package component provides CLI command implementations for the component command group.
package component

import (
	"github.com/spf13/cobra"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
)

// NewComponentCmd creates the component command group.
func NewComponentCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "component",
		Short: "Inspect project components",
		Long:  `Inspect the components of a pharaoh project.`,
	}

	c.AddCommand(NewListCmd(cfg))
	c.AddCommand(NewFindCmd(cfg))

	return c
}

// NewListCmd creates the component list command.
func NewListCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var of cmdutil.OutputFlags

	c := &cobra.Command{
		Use:   "list",
		Short: "List components in report order",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runFind(c, cfg, &of, "")
		},
	}

	of.AddTo(c)
	return c
}

// NewFindCmd creates the component find command.
func NewFindCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var of cmdutil.OutputFlags

	c := &cobra.Command{
		Use:   "find <expression>",
		Short: "Find components with a query expression",
		Long: `Find components whose settings entry satisfies a query expression.

The variables of the expression are the keys of the component entry: name,
templates, render_context, resources and metadata. An invalid expression
matches nothing.

Examples:
  pharaoh component find 'name == "intro"'
  pharaoh component find 'metadata.team == "a" && contains(templates, "pharaoh.empty")'`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runFind(c, cfg, &of, args[0])
		},
	}

	of.AddTo(c)
	return c
}

func runFind(c *cobra.Command, cfg *cmdtypes.GlobalConfig, of *cmdutil.OutputFlags, expr string) error {
	format, err := of.Resolve()
	if err != nil {
		return cmdutil.Fail("invalid arguments", err)
	}
	p, err := cmdutil.OpenProject(cfg)
	if err != nil {
		return cmdutil.Fail("opening project failed", err)
	}
	comps, err := p.FindComponents(expr)
	if err != nil {
		return cmdutil.Fail("finding components failed", err)
	}
	return cmdutil.WriteComponents(c.OutOrStdout(), format, comps)
}
