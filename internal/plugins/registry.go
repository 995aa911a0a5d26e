package plugins

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/resource"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
	"github.com/pharaoh-reports/pharaoh/internal/templates"
)

// Registry aggregates the extension points of a fixed set of plugins.
type Registry struct {
	plugins []Plugin

	once           sync.Once
	err            error
	templates      map[string]templates.Template
	mapping        map[string]string
	assetTemplates map[string][]fs.FS
	resourceTypes  map[string]resource.Factory
}

// NewRegistry creates a registry. Plugin order matters for the asset
// template mapping, where later plugins win.
func NewRegistry(plugins ...Plugin) *Registry {
	return &Registry{plugins: plugins}
}

// Default returns a registry holding only the core plugin.
func Default() *Registry {
	return NewRegistry(Core())
}

// Plugins returns the registered plugins in order.
func (r *Registry) Plugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}

// DefaultSources returns the default-settings contributions in plugin order.
func (r *Registry) DefaultSources() []settings.DefaultsSource {
	var out []settings.DefaultsSource
	for _, p := range r.plugins {
		if dp, ok := p.(DefaultSettingsProvider); ok {
			out = append(out, dp.DefaultSettings)
		}
	}
	return out
}

func (r *Registry) init() error {
	r.once.Do(func() {
		r.templates = map[string]templates.Template{}
		r.mapping = map[string]string{}
		r.assetTemplates = map[string][]fs.FS{}
		r.resourceTypes = map[string]resource.Factory{}

		for _, p := range r.plugins {
			if tp, ok := p.(TemplateProvider); ok {
				for _, t := range tp.Templates() {
					if _, dup := r.templates[t.Name]; dup {
						r.err = fmt.Errorf("plugin %s: template %q is already registered", p.Name(), t.Name)
						return
					}
					r.templates[t.Name] = t
				}
			}
			if ap, ok := p.(AssetTemplateProvider); ok {
				for ext, name := range ap.AssetTemplateMapping() {
					r.mapping[strings.ToLower(ext)] = name
				}
				if fsys := ap.AssetTemplates(); fsys != nil {
					entries, err := fs.Glob(fsys, "*.tmpl")
					if err != nil {
						r.err = fmt.Errorf("plugin %s: listing asset templates: %w", p.Name(), err)
						return
					}
					for _, e := range entries {
						name := strings.TrimSuffix(e, ".tmpl")
						r.assetTemplates[name] = append(r.assetTemplates[name], fsys)
					}
				}
			}
			if rp, ok := p.(ResourceTypeProvider); ok {
				for name, f := range rp.ResourceTypes() {
					if _, dup := r.resourceTypes[name]; dup {
						r.err = fmt.Errorf("plugin %s: resource type %q is already registered", p.Name(), name)
						return
					}
					r.resourceTypes[name] = f
				}
			}
		}
	})
	return r.err
}

// Templates returns all named templates sorted by name.
func (r *Registry) Templates() ([]templates.Template, error) {
	if err := r.init(); err != nil {
		return nil, err
	}
	out := make([]templates.Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Template resolves a template by registered name or, failing that, as a
// directory on disk.
func (r *Registry) Template(nameOrPath string, kind templates.Kind) (templates.Template, error) {
	if err := r.init(); err != nil {
		return templates.Template{}, err
	}
	if t, ok := r.templates[nameOrPath]; ok {
		if t.Kind != kind {
			return templates.Template{}, oerrors.NewValidationError(
				fmt.Sprintf("template %q is a %s template, not a %s template", nameOrPath, t.Kind, kind), "", "", "")
		}
		return t, nil
	}
	if strings.ContainsAny(nameOrPath, `/\`) || filepath.IsAbs(nameOrPath) {
		return templates.FromDir(nameOrPath, kind)
	}
	return templates.Template{}, oerrors.NewNotFoundError(
		fmt.Sprintf("no %s template named %q", kind, nameOrPath), "",
		"Run 'pharaoh info' to list available templates")
}

// AssetTemplateMapping returns a copy of the merged extension mapping.
func (r *Registry) AssetTemplateMapping() map[string]string {
	if err := r.init(); err != nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(r.mapping))
	for k, v := range r.mapping {
		out[k] = v
	}
	return out
}

// TemplateForSuffix maps a file extension to an asset template name.
func (r *Registry) TemplateForSuffix(suffix string) (string, error) {
	if err := r.init(); err != nil {
		return "", err
	}
	name, ok := r.mapping[strings.ToLower(suffix)]
	if !ok {
		return "", oerrors.NewNotFoundError(
			fmt.Sprintf("no asset template mapped to file extension %q", suffix), "",
			"Pass an explicit template when registering the asset")
	}
	return name, nil
}

// HasAssetTemplate reports whether exactly one plugin provides the template.
func (r *Registry) HasAssetTemplate(name string) bool {
	if err := r.init(); err != nil {
		return false
	}
	return len(r.assetTemplates[name]) == 1
}

// AssetTemplate returns the source of an asset template. The name must be
// provided by exactly one plugin.
func (r *Registry) AssetTemplate(name string) (string, error) {
	if err := r.init(); err != nil {
		return "", err
	}
	providers := r.assetTemplates[name]
	switch len(providers) {
	case 0:
		return "", oerrors.NewNotFoundError(fmt.Sprintf("asset template %q does not exist", name), "", "")
	case 1:
		raw, err := fs.ReadFile(providers[0], name+".tmpl")
		if err != nil {
			return "", fmt.Errorf("reading asset template %q: %w", name, err)
		}
		return string(raw), nil
	default:
		return "", oerrors.NewValidationError(
			fmt.Sprintf("asset template %q is provided by %d plugins", name, len(providers)), "", "", "")
	}
}

// AssetTemplateNames lists all asset template names.
func (r *Registry) AssetTemplateNames() []string {
	if err := r.init(); err != nil {
		return nil
	}
	out := make([]string, 0, len(r.assetTemplates))
	for name := range r.assetTemplates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ResourceTypes returns the registered resource factories.
func (r *Registry) ResourceTypes() (map[string]resource.Factory, error) {
	if err := r.init(); err != nil {
		return nil, err
	}
	out := make(map[string]resource.Factory, len(r.resourceTypes))
	for k, v := range r.resourceTypes {
		out[k] = v
	}
	return out, nil
}
