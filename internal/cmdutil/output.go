package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pharaoh-reports/pharaoh/internal/asset"
	"github.com/pharaoh-reports/pharaoh/internal/component"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/generate"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// assetView is the structured rendering of an asset.
type assetView struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Component string         `json:"component" yaml:"component"`
	Template  string         `json:"template" yaml:"template"`
	File      string         `json:"file" yaml:"file"`
	Context   map[string]any `json:"context" yaml:"context"`
}

// WriteAssets writes assets as a table or structured document.
func WriteAssets(w io.Writer, format output.OutputFormat, assets []*asset.Asset) error {
	if format != output.FormatTable {
		views := make([]assetView, 0, len(assets))
		for _, a := range assets {
			views = append(views, assetView{
				ID:        a.ID,
				Name:      a.Name(),
				Component: a.Component(),
				Template:  a.Template(),
				File:      a.AssetFile,
				Context:   a.Context,
			})
		}
		return output.WriteStructured(w, format, views)
	}

	if len(assets) == 0 {
		fmt.Fprintln(w, output.StyleDim.Render("No assets found"))
		return nil
	}
	tbl := output.NewTable("COMPONENT", "NAME", "TEMPLATE", "INDEX", "COPY2BUILD").AlignRight(3)
	for _, a := range assets {
		tbl.Row(
			output.StyleNoun.Render(a.Component()),
			a.Name(),
			a.Template(),
			strconv.Itoa(a.Index()),
			strconv.FormatBool(a.Copy2Build()),
		)
	}
	fmt.Fprintln(w, tbl.String())
	return nil
}

// WriteComponents writes components as a table or structured document.
func WriteComponents(w io.Writer, format output.OutputFormat, comps []component.Component) error {
	if format != output.FormatTable {
		views := make([]map[string]any, 0, len(comps))
		for _, c := range comps {
			views = append(views, c.Map())
		}
		return output.WriteStructured(w, format, views)
	}

	if len(comps) == 0 {
		fmt.Fprintln(w, output.StyleDim.Render("No components found"))
		return nil
	}
	tbl := output.NewTable("NAME", "TEMPLATES", "RESOURCES", "METADATA")
	for _, c := range comps {
		aliases := make([]string, 0, len(c.Resources))
		for _, r := range c.Resources {
			aliases = append(aliases, fmt.Sprint(r["alias"]))
		}
		tbl.Row(
			output.StyleNoun.Render(c.Name),
			strings.Join(c.Templates, ", "),
			strings.Join(aliases, ", "),
			formatMetadata(c.Metadata),
		)
	}
	fmt.Fprintln(w, tbl.String())
	return nil
}

func formatMetadata(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}

// WriteResults writes one status line per generation unit.
func WriteResults(w io.Writer, results []generate.Result) {
	for _, r := range results {
		status := r.Status()
		fmt.Fprintf(w, "%s %s %s %s\n",
			output.StatusStyle(status).Render(fmt.Sprintf("%-9s", status)),
			output.StyleNoun.Render(r.Component),
			r.Source,
			output.StyleDim.Render(r.Duration.Round(time.Millisecond).String()),
		)
	}
}

// PrintGenerationError logs every failed unit of a generation run.
// Other errors are logged as a single line.
func PrintGenerationError(err error) {
	var genErr *oerrors.GenerationError
	if !errors.As(err, &genErr) {
		output.Error("asset generation failed", "error", err)
		return
	}
	output.Error(fmt.Sprintf("%d asset generation unit(s) failed", len(genErr.Failures)))
	for _, f := range genErr.Failures {
		output.UnitLogger(f.Source).Error(f.Err.Error())
		if f.Trace != "" {
			output.Debug(f.Trace)
		}
	}
}
