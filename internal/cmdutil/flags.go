// Package cmdutil provides shared command utilities for pharaoh subcommands.
// It centralizes flag group management, project opening and output
// formatting helpers.
package cmdutil

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// TemplateFlags holds flags of commands that render templates
// (new, add, add-template).
type TemplateFlags struct {
	Templates []string
	Context   string
}

// AddTo registers the template flags on the given cobra command.
// def is the template used when none is given.
func (f *TemplateFlags) AddTo(cmd *cobra.Command, def string) {
	var defaults []string
	if def != "" {
		defaults = []string{def}
	}
	cmd.Flags().StringArrayVarP(&f.Templates, "template", "t", defaults,
		"Template to render (can be repeated)")
	cmd.Flags().StringVarP(&f.Context, "context", "c", "",
		`Template rendering context as a YAML or JSON mapping, e.g. "{a: 1}"`)
}

// RenderContext parses the --context value.
func (f *TemplateFlags) RenderContext() (map[string]any, error) {
	return ParseMapFlag("context", f.Context)
}

// OutputFlags holds the --output flag of query commands.
type OutputFlags struct {
	Format string
}

// AddTo registers the output flag on the given cobra command.
func (f *OutputFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Format, "output", "o", "table",
		"Output format: "+strings.Join(output.ValidFormats(), ", "))
}

// Resolve parses the output format.
func (f *OutputFlags) Resolve() (output.OutputFormat, error) {
	format, ok := output.ParseOutputFormat(f.Format)
	if !ok {
		return "", oerrors.NewValidationError(
			fmt.Sprintf("invalid output format %q", f.Format), "", "output",
			"Use one of: "+strings.Join(output.ValidFormats(), ", "))
	}
	return format, nil
}

// FilterFlags holds repeated component name filters (generate, asset list).
type FilterFlags struct {
	Filters []string
}

// AddTo registers the filter flag on the given cobra command.
func (f *FilterFlags) AddTo(cmd *cobra.Command, usage string) {
	cmd.Flags().StringArrayVarP(&f.Filters, "filter", "f", nil, usage)
}

// ParseMapFlag parses a YAML or JSON mapping given on the command line.
// An empty value yields an empty map.
func ParseMapFlag(name, raw string) (map[string]any, error) {
	out := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("--%s is not valid YAML: %v", name, err), "", name, "")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("--%s must be a mapping, got %q", name, raw), "", name,
			`Use mapping syntax, e.g. "{key: value}"`)
	}
	return m, nil
}

// ParseMapFlags parses every value of a repeated mapping flag.
func ParseMapFlags(name string, raw []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		m, err := ParseMapFlag(name, r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
