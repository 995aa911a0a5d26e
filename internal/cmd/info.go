package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/version"
)

// NewInfoCmd creates the info command.
func NewInfoCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show version and plugin information",
		Long: `Show the pharaoh version together with the loaded plugins and what
they provide: project and component templates, asset templates with their
file extension mapping, and resource types.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			registry := cfg.Registry()
			w := c.OutOrStdout()

			fmt.Fprintln(w, version.Get().Short())
			fmt.Fprintln(w)

			names := make([]string, 0, len(registry.Plugins()))
			for _, p := range registry.Plugins() {
				names = append(names, p.Name())
			}
			fmt.Fprintln(w, output.StyleBold.Render("Plugins:")+" "+strings.Join(names, ", "))

			tmpls, err := registry.Templates()
			if err != nil {
				return cmdutil.Fail("loading plugins failed", err)
			}
			tbl := output.NewTable("TEMPLATE", "KIND", "DESCRIPTION")
			for _, t := range tmpls {
				tbl.Row(output.StyleNoun.Render(t.Name), string(t.Kind), t.Description)
			}
			fmt.Fprintln(w, tbl.String())

			mapping := registry.AssetTemplateMapping()
			bySuffix := map[string][]string{}
			for suffix, name := range mapping {
				bySuffix[name] = append(bySuffix[name], suffix)
			}
			assetTbl := output.NewTable("ASSET TEMPLATE", "EXTENSIONS")
			for _, name := range registry.AssetTemplateNames() {
				suffixes := bySuffix[name]
				sort.Strings(suffixes)
				assetTbl.Row(output.StyleNoun.Render(name), strings.Join(suffixes, " "))
			}
			fmt.Fprintln(w, assetTbl.String())

			types, err := registry.ResourceTypes()
			if err != nil {
				return cmdutil.Fail("loading plugins failed", err)
			}
			typeNames := make([]string, 0, len(types))
			for name := range types {
				typeNames = append(typeNames, name)
			}
			sort.Strings(typeNames)
			fmt.Fprintln(w, output.StyleBold.Render("Resource types:")+" "+strings.Join(typeNames, ", "))
			return nil
		},
	}
}

// NewVersionCmd creates the version command.
func NewVersionCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show pharaoh version information.

Displays:
  - pharaoh version, commit and build date
  - Go version and platform
  - CUE SDK version used for settings validation`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			fmt.Fprintln(c.OutOrStdout(), version.Get().String())
			return nil
		},
	}
}
