// Package templates scaffolds project and component file trees from
// template directories.
package templates

import "io/fs"

// Kind tells where a template is applied.
type Kind string

const (
	// KindProject templates are rendered into the project root.
	KindProject Kind = "project"

	// KindComponent templates are rendered into a component directory.
	KindComponent Kind = "component"
)

// Template is a tree of files rendered into a target directory.
type Template struct {
	// Name is the template identifier, e.g. "pharaoh.empty".
	Name string

	// Description explains the template's purpose.
	Description string

	// Kind tells whether the template targets a project or a component.
	Kind Kind

	// FS holds the template files below Root.
	FS fs.FS

	// Root is the template directory inside FS.
	Root string

	// Needs lists templates that must be available wherever this one is used.
	Needs []string
}

// RenderOptions configures Render.
type RenderOptions struct {
	// Overwrite allows replacing existing files.
	Overwrite bool

	// ContextFile, if set, receives the template data as JSON, relative to
	// the target directory.
	ContextFile string
}
