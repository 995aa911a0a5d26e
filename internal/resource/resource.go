// Package resource defines data sources that components declare in the
// project settings and that generation units read.
package resource

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cast"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

// Resource is a typed data source of a component.
type Resource interface {
	// Alias is the name the component uses for the resource.
	Alias() string

	// Type is the registered resource type name.
	Type() string

	// Spec returns the settings entry the resource was built from.
	Spec() map[string]any

	// Resolve materializes the resource for a project, e.g. by expanding
	// globs. The result must be JSON-encodable.
	Resolve(projectRoot string) (any, error)
}

// Factory builds a resource from its settings entry.
type Factory func(spec map[string]any) (Resource, error)

// New builds a resource from spec using the factory registered for spec's type.
func New(spec map[string]any, factories map[string]Factory) (Resource, error) {
	typ := cast.ToString(spec["type"])
	if typ == "" {
		return nil, oerrors.NewValidationError("resource has no type", "", "type", "")
	}
	factory, ok := factories[typ]
	if !ok {
		known := make([]string, 0, len(factories))
		for name := range factories {
			known = append(known, name)
		}
		sort.Strings(known)
		return nil, oerrors.NewNotFoundError(
			fmt.Sprintf("unknown resource type %q", typ), "",
			fmt.Sprintf("Known resource types: %v", known))
	}
	return factory(spec)
}

// FileResource matches files of the project with a glob pattern.
type FileResource struct {
	alias   string
	pattern string
	spec    map[string]any
}

// NewFile is the Factory for the "file" resource type. The spec needs
// "alias" and "pattern"; relative patterns are resolved against the project root.
func NewFile(spec map[string]any) (Resource, error) {
	alias := cast.ToString(spec["alias"])
	pattern := cast.ToString(spec["pattern"])
	if alias == "" {
		return nil, oerrors.NewValidationError("file resource needs an alias", "", "alias", "")
	}
	if pattern == "" {
		return nil, oerrors.NewValidationError(fmt.Sprintf("file resource %q needs a pattern", alias), "", "pattern", "")
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, oerrors.NewValidationError(fmt.Sprintf("invalid pattern %q: %v", pattern, err), "", "pattern", "")
	}
	return &FileResource{alias: alias, pattern: pattern, spec: spec}, nil
}

// Alias implements Resource.
func (r *FileResource) Alias() string { return r.alias }

// Type implements Resource.
func (r *FileResource) Type() string { return "file" }

// Spec implements Resource.
func (r *FileResource) Spec() map[string]any { return r.spec }

// Resolve returns the sorted list of matching absolute paths.
func (r *FileResource) Resolve(projectRoot string) (any, error) {
	pattern := r.pattern
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(projectRoot, pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	if matches == nil {
		matches = []string{}
	}
	return matches, nil
}
