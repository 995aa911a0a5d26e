// Package component defines report components as stored in the project
// settings file.
package component

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
)

// SettingsKey is the project settings key holding the component list.
const SettingsKey = "components"

// reserved keys are added to every component's render context.
var reserved = []string{"component_name", "resources", "metadata"}

// Component is one section of the report.
type Component struct {
	// Name is unique within a project and names the component directory.
	Name string `mapstructure:"name" json:"name" yaml:"name"`

	// Templates were rendered into the component directory, in order.
	Templates []string `mapstructure:"templates" json:"templates" yaml:"templates"`

	// RenderContext is the data the templates were rendered with.
	RenderContext map[string]any `mapstructure:"render_context" json:"render_context" yaml:"render_context"`

	// Resources are data-source definitions used by asset scripts.
	Resources []map[string]any `mapstructure:"resources" json:"resources" yaml:"resources"`

	// Metadata is free-form and used to find components.
	Metadata map[string]any `mapstructure:"metadata" json:"metadata" yaml:"metadata"`
}

// Map returns the settings representation of c. It also serves as the
// variable set for component queries.
func (c Component) Map() map[string]any {
	resources := make([]any, 0, len(c.Resources))
	for _, r := range c.Resources {
		resources = append(resources, mergedeep.DeepCopy(r))
	}
	templates := make([]any, 0, len(c.Templates))
	for _, t := range c.Templates {
		templates = append(templates, t)
	}
	return map[string]any{
		"name":           c.Name,
		"templates":      templates,
		"render_context": mergedeep.DeepCopy(c.RenderContext),
		"resources":      resources,
		"metadata":       mergedeep.DeepCopy(c.Metadata),
	}
}

// RenderData returns the template data for c: the render context plus
// component_name, resources and metadata.
func (c Component) RenderData() (map[string]any, error) {
	data := mergedeep.DeepCopy(c.RenderContext)
	for _, key := range reserved {
		if _, ok := data[key]; ok {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("%q is a reserved render context key", key), "", "render_context."+key, "")
		}
	}
	m := c.Map()
	data["component_name"] = c.Name
	data["resources"] = m["resources"]
	data["metadata"] = m["metadata"]
	return data, nil
}

// Resource returns the resource definition with the given alias.
func (c Component) Resource(alias string) (map[string]any, bool) {
	for _, r := range c.Resources {
		if a, _ := r["alias"].(string); a == alias {
			return r, true
		}
	}
	return nil, false
}

// FromMap decodes one settings entry.
func FromMap(m map[string]any) (Component, error) {
	var c Component
	if err := mapstructure.Decode(mergedeep.DeepCopy(m), &c); err != nil {
		return Component{}, oerrors.NewValidationError(
			fmt.Sprintf("invalid component definition: %v", err), "", SettingsKey, "")
	}
	if c.Name == "" {
		return Component{}, oerrors.NewValidationError("component without name", "", SettingsKey, "")
	}
	if c.Templates == nil {
		c.Templates = []string{}
	}
	if c.Resources == nil {
		c.Resources = []map[string]any{}
	}
	if c.RenderContext == nil {
		c.RenderContext = map[string]any{}
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	return c, nil
}

// FromSettings decodes the value stored under SettingsKey. A missing value
// yields no components.
func FromSettings(v any) ([]Component, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, oerrors.NewValidationError("components must be a list", "", SettingsKey, "")
	}
	out := make([]Component, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("component #%d is not a mapping", i+1), "", SettingsKey, "")
		}
		c, err := FromMap(m)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ToSettings encodes components for storage under SettingsKey.
func ToSettings(components []Component) []any {
	out := make([]any, 0, len(components))
	for _, c := range components {
		out = append(out, c.Map())
	}
	return out
}
