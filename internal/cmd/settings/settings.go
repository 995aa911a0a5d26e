// Package settings provides CLI command implementations for the settings command group.
package settings

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	psettings "github.com/pharaoh-reports/pharaoh/internal/settings"
)

// NewSettingsCmd creates the settings command group.
func NewSettingsCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "settings",
		Short: "Inspect project settings",
		Long: `Inspect the layered project settings.

Settings come from three namespaces, later ones taking precedence:
  default   plugin defaults
  project   the pharaoh.yaml file of the project
  env       PHARAOH.* environment variables, e.g. PHARAOH.REPORT.TITLE`,
	}

	c.AddCommand(NewGetCmd(cfg))
	c.AddCommand(NewShowCmd(cfg))
	c.AddCommand(NewExplainCmd(cfg))
	c.AddCommand(NewVetCmd(cfg))
	c.AddCommand(NewDiffCmd(cfg))

	return c
}

// NewGetCmd creates the settings get command.
func NewGetCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		rawFlag    bool
		formatFlag string
	)

	c := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Long: `Print the effective value of a dotted setting key.

Interpolations such as ${pharaoh.project_dir:} are resolved unless --raw
is given. Scalars are printed as is, mappings and lists as YAML or JSON.

Examples:
  pharaoh settings get report.title
  pharaoh settings get asset_gen -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			format, ok := output.ParseOutputFormat(formatFlag)
			if !ok || format == output.FormatTable {
				return cmdutil.Fail("invalid arguments", oerrors.NewValidationError(
					fmt.Sprintf("invalid output format %q", formatFlag), "", "output", "Use yaml or json"))
			}
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			var opts []psettings.GetOption
			if rawFlag {
				opts = append(opts, psettings.Raw())
			}
			value, err := p.Settings().Get(args[0], opts...)
			if err != nil {
				return cmdutil.Fail("reading setting failed", err)
			}
			return writeValue(c.OutOrStdout(), format, value)
		},
	}

	c.Flags().BoolVar(&rawFlag, "raw", false, "Do not resolve interpolations")
	c.Flags().StringVarP(&formatFlag, "output", "o", "yaml", "Output format for mappings and lists: yaml, json")
	return c
}

// NewShowCmd creates the settings show command.
func NewShowCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		namespaceFlag string
		resolveFlag   bool
		formatFlag    string
	)

	c := &cobra.Command{
		Use:   "show",
		Short: "Print all settings",
		Long: `Print the merged settings or a single namespace.

Examples:
  pharaoh settings show
  pharaoh settings show --resolve
  pharaoh settings show -n env -o json`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			format, ok := output.ParseOutputFormat(formatFlag)
			if !ok || format == output.FormatTable {
				return cmdutil.Fail("invalid arguments", oerrors.NewValidationError(
					fmt.Sprintf("invalid output format %q", formatFlag), "", "output", "Use yaml or json"))
			}
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			data, err := namespaceData(p.Settings(), namespaceFlag, resolveFlag)
			if err != nil {
				return cmdutil.Fail("reading settings failed", err)
			}
			return output.WriteStructured(c.OutOrStdout(), format, data)
		},
	}

	c.Flags().StringVarP(&namespaceFlag, "namespace", "n", string(psettings.NamespaceAll),
		"Namespace to show: all, default, project, env")
	c.Flags().BoolVar(&resolveFlag, "resolve", false, "Resolve interpolations (merged view only)")
	c.Flags().StringVarP(&formatFlag, "output", "o", "yaml", "Output format: yaml, json")
	return c
}

// NewExplainCmd creates the settings explain command.
func NewExplainCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <key>",
		Short: "Show where a setting comes from",
		Long: `Show which namespace supplies a setting and which values it shadows.

Examples:
  pharaoh settings explain report.title`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			rv, err := p.Settings().Explain(args[0])
			if err != nil {
				return cmdutil.Fail("explaining setting failed", err)
			}
			psettings.LogResolvedValues([]psettings.ResolvedValue{rv})

			w := c.OutOrStdout()
			fmt.Fprintf(w, "%s = %v\n", output.StyleNoun.Render(rv.Key), rv.Value)
			fmt.Fprintf(w, "  source: %s\n", rv.Source)
			shadowed := make([]string, 0, len(rv.Shadowed))
			for ns := range rv.Shadowed {
				shadowed = append(shadowed, string(ns))
			}
			sort.Strings(shadowed)
			for _, ns := range shadowed {
				fmt.Fprintf(w, "  %s\n", output.StyleDim.Render(fmt.Sprintf("shadows %s: %v", ns, rv.Shadowed[psettings.Namespace(ns)])))
			}
			return nil
		},
	}
}

// NewVetCmd creates the settings vet command.
func NewVetCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate the project settings",
		Long: `Validate the project settings file and the merged settings against
the built-in settings schema.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			v, err := psettings.NewValidator()
			if err != nil {
				return cmdutil.Fail("loading settings schema failed", err)
			}
			if err := v.Validate(p.Settings().Layer(psettings.NamespaceProject)); err != nil {
				return cmdutil.Fail("project settings are invalid", fmt.Errorf("%s: %w", p.SettingsFile(), err))
			}
			merged, err := p.Settings().Effective(false)
			if err != nil {
				return cmdutil.Fail("reading settings failed", err)
			}
			if err := v.Validate(merged); err != nil {
				return cmdutil.Fail("merged settings are invalid", err)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Settings are valid: "+p.SettingsFile()))
			return nil
		},
	}
}

// NewDiffCmd creates the settings diff command.
func NewDiffCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var fromFlag, toFlag string

	c := &cobra.Command{
		Use:   "diff",
		Short: "Compare two settings namespaces",
		Long: `Compare two settings namespaces, by default the plugin defaults
against the merged settings.

Examples:
  pharaoh settings diff
  pharaoh settings diff --from project --to all`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			from, err := namespaceData(p.Settings(), fromFlag, false)
			if err != nil {
				return cmdutil.Fail("reading settings failed", err)
			}
			to, err := namespaceData(p.Settings(), toFlag, false)
			if err != nil {
				return cmdutil.Fail("reading settings failed", err)
			}
			diff, err := psettings.Diff(fromFlag, from, toFlag, to, output.IsTTY())
			if err != nil {
				return cmdutil.Fail("comparing settings failed", err)
			}
			if diff == "" {
				fmt.Fprintln(c.OutOrStdout(), output.StyleDim.Render("No differences"))
				return nil
			}
			fmt.Fprintln(c.OutOrStdout(), diff)
			return nil
		},
	}

	c.Flags().StringVar(&fromFlag, "from", string(psettings.NamespaceDefault), "Base namespace: all, default, project, env")
	c.Flags().StringVar(&toFlag, "to", string(psettings.NamespaceAll), "Compared namespace: all, default, project, env")
	return c
}

// namespaceData returns a namespace or, for "all", the merged view.
func namespaceData(r *psettings.Resolver, ns string, resolve bool) (map[string]any, error) {
	switch psettings.Namespace(ns) {
	case psettings.NamespaceAll:
		return r.Effective(resolve)
	case psettings.NamespaceDefault, psettings.NamespaceProject, psettings.NamespaceEnv:
		return r.Layer(psettings.Namespace(ns)), nil
	default:
		return nil, oerrors.NewValidationError(fmt.Sprintf("unknown namespace %q", ns), "", "namespace",
			"Use one of: all, default, project, env")
	}
}

func writeValue(w io.Writer, format output.OutputFormat, value any) error {
	switch value.(type) {
	case map[string]any, []any:
		return output.WriteStructured(w, format, value)
	case nil:
		_, err := fmt.Fprintln(w, "null")
		return err
	default:
		_, err := fmt.Fprintln(w, value)
		return err
	}
}
