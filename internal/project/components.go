package project

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pharaoh-reports/pharaoh/internal/component"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/query"
	"github.com/pharaoh-reports/pharaoh/internal/resource"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
	"github.com/pharaoh-reports/pharaoh/internal/templates"
)

// DefaultComponentTemplate is used when a component names no template.
const DefaultComponentTemplate = "pharaoh.empty"

// ComponentOptions configures AddComponent.
type ComponentOptions struct {
	// Templates are rendered into the component directory in order; later
	// templates overwrite files of earlier ones.
	Templates     []string
	RenderContext map[string]any
	Resources     []map[string]any
	Metadata      map[string]any

	// Index is the position in the component list. Negative values count
	// from the end, -1 appends. Nil appends.
	Index *int

	// Overwrite replaces an existing component of the same name.
	Overwrite bool
}

// Components returns the components stored in the project settings.
func (p *Project) Components() ([]component.Component, error) {
	raw, err := p.res.Get(component.SettingsKey, settings.WithDefault(nil), settings.Raw())
	if err != nil {
		return nil, err
	}
	return component.FromSettings(raw)
}

// Component returns the component called name.
func (p *Project) Component(name string) (component.Component, error) {
	list, err := p.Components()
	if err != nil {
		return component.Component{}, err
	}
	for _, c := range list {
		if c.Name == name {
			return c, nil
		}
	}
	return component.Component{}, oerrors.NewNotFoundError(
		fmt.Sprintf("component %q does not exist", name), "", "Run 'pharaoh component list' to see all components")
}

func (p *Project) saveComponents(list []component.Component) error {
	if err := p.res.Put(component.SettingsKey, component.ToSettings(list)); err != nil {
		return err
	}
	return p.res.Save(false)
}

// AddComponent registers a new component and renders its templates into
// the component directory.
func (p *Project) AddComponent(name string, opts ComponentOptions) (component.Component, error) {
	if err := templates.ValidateComponentName(name); err != nil {
		return component.Component{}, oerrors.NewValidationError(err.Error(), "", "name", "")
	}
	existing, err := p.Components()
	if err != nil {
		return component.Component{}, err
	}

	kept := make([]component.Component, 0, len(existing)+1)
	for _, c := range existing {
		if c.Name != name {
			kept = append(kept, c)
			continue
		}
		if !opts.Overwrite {
			return component.Component{}, oerrors.NewValidationError(
				fmt.Sprintf("component %q already exists", name), "", "name",
				"Pass --overwrite to replace it")
		}
	}

	names := opts.Templates
	if len(names) == 0 {
		names = []string{DefaultComponentTemplate}
	}
	c, err := component.FromMap(map[string]any{
		"name":           name,
		"templates":      toAnySlice(names),
		"render_context": mergedeep.DeepCopy(opts.RenderContext),
		"resources":      resourceList(opts.Resources),
		"metadata":       mergedeep.DeepCopy(opts.Metadata),
	})
	if err != nil {
		return component.Component{}, err
	}
	c.RenderContext["pharaoh_cli_path"] = cliPath()

	for _, r := range c.Resources {
		if _, err := p.newResource(r); err != nil {
			return component.Component{}, err
		}
	}
	if err := p.renderComponent(c, names); err != nil {
		return component.Component{}, err
	}

	index := len(kept)
	if opts.Index != nil {
		index = *opts.Index
		if index < 0 {
			index = max(0, len(kept)+1+index)
		}
		index = min(index, len(kept))
	}
	kept = append(kept[:index], append([]component.Component{c}, kept[index:]...)...)

	if err := p.saveComponents(kept); err != nil {
		return component.Component{}, err
	}
	output.Info("Added component", "name", name, "templates", strings.Join(names, ","))
	return c, nil
}

// AddTemplateToComponent renders additional templates into an existing
// component. renderContext is merged into the stored render context.
func (p *Project) AddTemplateToComponent(name string, names []string, renderContext map[string]any) error {
	if len(names) == 0 {
		return oerrors.NewValidationError("no templates specified", "", "templates", "")
	}
	list, err := p.Components()
	if err != nil {
		return err
	}
	idx := -1
	for i, c := range list {
		if c.Name == name {
			idx = i
		}
	}
	if idx < 0 {
		return oerrors.NewNotFoundError(fmt.Sprintf("component %q does not exist", name), "", "")
	}

	c := list[idx]
	c.RenderContext = mergedeep.Merge(c.RenderContext, renderContext)
	c.Templates = append(c.Templates, names...)
	if err := p.renderComponent(c, names); err != nil {
		return err
	}
	list[idx] = c

	if err := p.saveComponents(list); err != nil {
		return err
	}
	output.Info("Updated component", "name", name, "templates", strings.Join(names, ","))
	return nil
}

func (p *Project) renderComponent(c component.Component, names []string) error {
	data, err := c.RenderData()
	if err != nil {
		return err
	}
	dir := filepath.Join(p.ComponentsDir(), c.Name)
	for _, name := range names {
		tmpl, err := p.registry.Template(name, templates.KindComponent)
		if err != nil {
			return err
		}
		_, err = templates.Render(tmpl, dir, data, templates.RenderOptions{
			Overwrite:   true,
			ContextFile: ".template_context.json",
		})
		if err != nil {
			return fmt.Errorf("rendering template %s into component %s: %w", name, c.Name, err)
		}
	}
	return nil
}

// RemoveComponent removes every component whose name matches filter and
// deletes its directory. Without regex the filter must equal the name,
// ignoring case; with regex it must match at the start of the name. The
// removed names are returned.
func (p *Project) RemoveComponent(filter string, regex bool) ([]string, error) {
	match := func(name string) bool { return strings.EqualFold(name, filter) }
	if regex {
		re, err := regexp.Compile(`(?i)^(?:` + filter + `)`)
		if err != nil {
			return nil, oerrors.NewValidationError(fmt.Sprintf("invalid filter: %v", err), "", "filter", "")
		}
		match = re.MatchString
	}

	list, err := p.Components()
	if err != nil {
		return nil, err
	}
	var removed []string
	kept := make([]component.Component, 0, len(list))
	for _, c := range list {
		if !match(c.Name) {
			kept = append(kept, c)
			continue
		}
		if err := os.RemoveAll(filepath.Join(p.ComponentsDir(), c.Name)); err != nil {
			return removed, fmt.Errorf("removing component %s: %w", c.Name, err)
		}
		removed = append(removed, c.Name)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := p.saveComponents(kept); err != nil {
		return removed, err
	}
	output.Info("Removed components", "names", strings.Join(removed, ","))
	return removed, nil
}

// FindComponents returns the components whose settings entry satisfies
// expr. The entry's keys (name, templates, render_context, resources,
// metadata) are the expression variables. An empty expression matches all;
// an invalid one matches none.
func (p *Project) FindComponents(expr string) ([]component.Component, error) {
	list, err := p.Components()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(expr) == "" {
		return list, nil
	}
	compiled, err := query.Compile(expr)
	if err != nil {
		output.Debug("invalid component query", "expr", expr, "error", err)
		return []component.Component{}, nil
	}
	found := []component.Component{}
	for _, c := range list {
		if compiled.Match(c.Map()) {
			found = append(found, c)
		}
	}
	return found, nil
}

// GetResource returns the resource with alias of a component.
func (p *Project) GetResource(alias, componentName string) (resource.Resource, error) {
	c, err := p.Component(componentName)
	if err != nil {
		return nil, err
	}
	spec, ok := c.Resource(alias)
	if !ok {
		return nil, oerrors.NewNotFoundError(
			fmt.Sprintf("cannot find resource %q in component %q", alias, componentName), "", "")
	}
	return p.newResource(spec)
}

// UpdateResource replaces the resource with the same alias in a component
// or appends it.
func (p *Project) UpdateResource(componentName string, spec map[string]any) error {
	r, err := p.newResource(spec)
	if err != nil {
		return err
	}
	list, err := p.Components()
	if err != nil {
		return err
	}
	for i, c := range list {
		if c.Name != componentName {
			continue
		}
		replaced := false
		for j, existing := range c.Resources {
			if existing["alias"] == r.Alias() {
				c.Resources[j] = mergedeep.DeepCopy(spec)
				replaced = true
			}
		}
		if !replaced {
			c.Resources = append(c.Resources, mergedeep.DeepCopy(spec))
		}
		list[i] = c
		return p.saveComponents(list)
	}
	return oerrors.NewNotFoundError(fmt.Sprintf("component %q does not exist", componentName), "", "")
}

// ResolveResources materializes every resource of a component, keyed by
// alias.
func (p *Project) ResolveResources(c component.Component) (map[string]any, error) {
	out := make(map[string]any, len(c.Resources))
	for _, spec := range c.Resources {
		r, err := p.newResource(spec)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", c.Name, err)
		}
		v, err := r.Resolve(p.root)
		if err != nil {
			return nil, fmt.Errorf("resolving resource %s of component %s: %w", r.Alias(), c.Name, err)
		}
		out[r.Alias()] = v
	}
	return out, nil
}

func (p *Project) newResource(spec map[string]any) (resource.Resource, error) {
	factories, err := p.registry.ResourceTypes()
	if err != nil {
		return nil, err
	}
	return resource.New(spec, factories)
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func resourceList(in []map[string]any) []any {
	out := make([]any, len(in))
	for i, r := range in {
		out[i] = mergedeep.DeepCopy(r)
	}
	return out
}
