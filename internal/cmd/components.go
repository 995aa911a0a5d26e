package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/project"
)

// NewAddCmd creates the add command.
func NewAddCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		tf            cmdutil.TemplateFlags
		metadataFlag  string
		resourceFlags []string
		indexFlag     int
		overwriteFlag bool
	)

	c := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a component to the project",
		Long: `Add a component to the project.

The component templates are rendered into components/<name> and the component
is recorded in the project settings.

Arguments:
  name    Component name: letters, digits, '_' and '-', not starting with '-'

Examples:
  # Add an empty component
  pharaoh add intro

  # Render a custom template with a context
  pharaoh add dummy1 -t ./templates/simple -c "{test_name: dummy}"

  # Attach metadata and a file resource, insert as first component
  pharaoh add dummy2 -m "{team: a}" -r "{type: file, alias: raw, pattern: 'data/*.csv'}" -i 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			renderContext, err := tf.RenderContext()
			if err != nil {
				return cmdutil.Fail("invalid arguments", err)
			}
			meta, err := cmdutil.ParseMapFlag("metadata", metadataFlag)
			if err != nil {
				return cmdutil.Fail("invalid arguments", err)
			}
			resources, err := cmdutil.ParseMapFlags("resource", resourceFlags)
			if err != nil {
				return cmdutil.Fail("invalid arguments", err)
			}

			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			_, err = p.AddComponent(args[0], project.ComponentOptions{
				Templates:     tf.Templates,
				RenderContext: renderContext,
				Resources:     resources,
				Metadata:      meta,
				Index:         &indexFlag,
				Overwrite:     overwriteFlag,
			})
			if err != nil {
				return cmdutil.Fail("adding component failed", err)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Added component "+output.StyleNoun.Render(args[0])))
			return nil
		},
	}

	tf.AddTo(c, project.DefaultComponentTemplate)
	c.Flags().StringVarP(&metadataFlag, "metadata", "m", "",
		"Component metadata as a YAML or JSON mapping, used to find components")
	c.Flags().StringArrayVarP(&resourceFlags, "resource", "r", nil,
		`Resource definition as a mapping with a "type" key (can be repeated)`)
	c.Flags().IntVarP(&indexFlag, "index", "i", -1,
		"Position in the component list; negative values count from the end")
	c.Flags().BoolVar(&overwriteFlag, "overwrite", false, "Replace a component with the same name")

	return c
}

// NewAddTemplateCmd creates the add-template command.
func NewAddTemplateCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var tf cmdutil.TemplateFlags

	c := &cobra.Command{
		Use:   "add-template <component>",
		Short: "Render additional templates into a component",
		Long: `Render additional templates into an existing component.

Files of the new templates overwrite existing files. The rendering context
is merged into the context stored for the component.

Examples:
  pharaoh add-template dummy1 -t ./templates/extra -c "{test_name: dummy}"`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			renderContext, err := tf.RenderContext()
			if err != nil {
				return cmdutil.Fail("invalid arguments", err)
			}
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			if err := p.AddTemplateToComponent(args[0], tf.Templates, renderContext); err != nil {
				return cmdutil.Fail("adding template failed", err)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark(fmt.Sprintf("Rendered %s into %s",
				strings.Join(tf.Templates, ", "), output.StyleNoun.Render(args[0]))))
			return nil
		},
	}

	tf.AddTo(c, "")
	return c
}

// NewUpdateResourceCmd creates the update-resource command.
func NewUpdateResourceCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var resourceFlag string

	c := &cobra.Command{
		Use:   "update-resource <component>",
		Short: "Replace or add a component resource",
		Long: `Replace the resource with the same alias in a component, or add it.

Examples:
  pharaoh update-resource dummy1 -r "{type: file, alias: raw, pattern: 'data/*.json'}"`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			spec, err := cmdutil.ParseMapFlag("resource", resourceFlag)
			if err != nil {
				return cmdutil.Fail("invalid arguments", err)
			}
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			if err := p.UpdateResource(args[0], spec); err != nil {
				return cmdutil.Fail("updating resource failed", err)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark(fmt.Sprintf("Updated resource %v of %s",
				spec["alias"], output.StyleNoun.Render(args[0]))))
			return nil
		},
	}

	c.Flags().StringVarP(&resourceFlag, "resource", "r", "",
		`Resource definition as a mapping with "type" and "alias" keys`)
	_ = c.MarkFlagRequired("resource")
	return c
}

// NewRemoveCmd creates the remove command.
func NewRemoveCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var regexFlag bool

	c := &cobra.Command{
		Use:   "remove <filter>",
		Short: "Remove components",
		Long: `Remove components and their directories.

The filter matches component names case-insensitively, either exactly or,
with --regex, as a regular expression anchored at the start of the name.

Examples:
  pharaoh remove intro
  pharaoh remove --regex "dummy.*"`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			removed, err := p.RemoveComponent(args[0], regexFlag)
			if err != nil {
				return cmdutil.Fail("removing components failed", err)
			}
			if len(removed) == 0 {
				fmt.Fprintln(c.OutOrStdout(), output.StyleDim.Render("No components matched "+args[0]))
				return nil
			}
			fmt.Fprintln(c.OutOrStdout(), "Removed components: "+strings.Join(removed, ", "))
			return nil
		},
	}

	c.Flags().BoolVarP(&regexFlag, "regex", "r", false, "Treat the filter as a regular expression")
	return c
}
