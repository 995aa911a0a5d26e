// Package plugins collects the extension points that shape a pharaoh
// project: default settings, project and component templates, asset
// templates with their file-extension mapping, and resource types.
//
// Each extension point is a small interface. A plugin implements any subset
// of them; the Registry aggregates all registered plugins once and caches
// the result.
package plugins

import (
	"io/fs"

	"github.com/pharaoh-reports/pharaoh/internal/resource"
	"github.com/pharaoh-reports/pharaoh/internal/templates"
)

// Plugin is the common interface of all plugins.
type Plugin interface {
	Name() string
}

// DefaultSettingsProvider contributes to the default settings namespace.
// Contributions are merged and must not conflict.
type DefaultSettingsProvider interface {
	DefaultSettings() (map[string]any, error)
}

// TemplateProvider contributes project and component templates.
// Template names must be unique across plugins.
type TemplateProvider interface {
	Templates() []templates.Template
}

// AssetTemplateProvider contributes asset templates and maps file
// extensions to them. For the mapping, later plugins override earlier ones.
type AssetTemplateProvider interface {
	// AssetTemplates holds one <name>.tmpl file per asset template.
	AssetTemplates() fs.FS

	// AssetTemplateMapping maps lower-case file extensions (".png") to
	// asset template names.
	AssetTemplateMapping() map[string]string
}

// ResourceTypeProvider contributes resource types. Type names must be
// unique across plugins.
type ResourceTypeProvider interface {
	ResourceTypes() map[string]resource.Factory
}
