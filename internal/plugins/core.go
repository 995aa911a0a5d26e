package plugins

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
	"github.com/pharaoh-reports/pharaoh/internal/resource"
	"github.com/pharaoh-reports/pharaoh/internal/templates"
)

//go:embed all:core
var coreFS embed.FS

// corePlugin provides the built-in defaults, templates and asset templates.
type corePlugin struct{}

// Core returns the built-in plugin.
func Core() Plugin {
	return corePlugin{}
}

func (corePlugin) Name() string {
	return "pharaoh.core"
}

func (corePlugin) DefaultSettings() (map[string]any, error) {
	raw, err := coreFS.ReadFile("core/default_settings.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading core default settings: %w", err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing core default settings: %w", err)
	}
	return mergedeep.DeepCopy(out), nil
}

func (corePlugin) Templates() []templates.Template {
	return []templates.Template{
		{
			Name:        "pharaoh.default_project",
			Description: "Project skeleton with a report index listing all components",
			Kind:        templates.KindProject,
			FS:          coreFS,
			Root:        "core/templates/default_project",
		},
		{
			Name:        "pharaoh.empty",
			Description: "Component page that renders every asset of the component",
			Kind:        templates.KindComponent,
			FS:          coreFS,
			Root:        "core/templates/empty",
		},
		{
			Name:        "pharaoh.report_info",
			Description: "Component page showing report metadata",
			Kind:        templates.KindComponent,
			FS:          coreFS,
			Root:        "core/templates/report_info",
			Needs:       []string{"pharaoh.empty"},
		},
	}
}

func (corePlugin) AssetTemplates() fs.FS {
	sub, err := fs.Sub(coreFS, "core/asset_templates")
	if err != nil {
		panic(err)
	}
	return sub
}

func (corePlugin) AssetTemplateMapping() map[string]string {
	return map[string]string{
		".html": "iframe",
		".rst":  "raw_rst",
		".txt":  "raw_txt",
		".svg":  "image",
		".png":  "image",
		".jpg":  "image",
		".jpeg": "image",
		".gif":  "image",
		".md":   "markdown",
		".csv":  "datatable",
	}
}

func (corePlugin) ResourceTypes() map[string]resource.Factory {
	return map[string]resource.Factory{
		"file": resource.NewFile,
	}
}
