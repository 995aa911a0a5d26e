// Package project manages a pharaoh project directory: its settings,
// components, generated assets and report builds.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pharaoh-reports/pharaoh/internal/asset"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/plugins"
	"github.com/pharaoh-reports/pharaoh/internal/report"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
	"github.com/pharaoh-reports/pharaoh/internal/templates"
)

// Project layout, relative to the project root.
const (
	SettingsFile     = "pharaoh.yaml"
	ReportProjectDir = "report-project"
	ComponentsDir    = "components"
	AssetBuildDir    = ".asset_build"
	ResourceCacheDir = ".resource_cache"
	ReportBuildDir   = "report-build"
	GitIgnoreFile    = ".gitignore"

	// DefaultProjectTemplate is rendered into new projects.
	DefaultProjectTemplate = "pharaoh.default_project"
)

var gitignoreLines = []string{
	"# Auto-generated by pharaoh",
	"/report-build",
	"/report-project/" + AssetBuildDir,
	"/report-project/" + ResourceCacheDir,
	"/*.zip",
}

// Options configures New.
type Options struct {
	// Overwrite deletes an existing directory before creating the project.
	Overwrite bool

	// Templates are the project templates rendered into a new project, in
	// order. Defaults to DefaultProjectTemplate.
	Templates []string

	// TemplateContext is additional data for the project templates.
	TemplateContext map[string]any

	// CustomSettings are merged over the defaults written to a new
	// project's settings file.
	CustomSettings map[string]any

	// Plugins provides defaults and templates. Defaults to plugins.Default().
	Plugins *plugins.Registry

	// Environ feeds the env settings namespace. Defaults to os.Environ.
	Environ func() []string
}

// Project is an opened pharaoh project.
type Project struct {
	root     string
	registry *plugins.Registry
	res      *settings.Resolver
	finder   *asset.Finder
}

// New opens the project at root, creating it when the directory is missing
// or empty. A non-empty directory that is not a project fails with
// ErrProjectInconsistent unless opts.Overwrite is set.
func New(root string, opts Options) (*Project, error) {
	root, err := absRoot(root)
	if err != nil {
		return nil, err
	}
	if opts.Plugins == nil {
		opts.Plugins = plugins.Default()
	}

	entries, err := os.ReadDir(root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading project directory: %w", err)
	}

	switch {
	case len(entries) > 0 && opts.Overwrite:
		output.Warn("Removing existing project directory", "path", root)
		if err := os.RemoveAll(root); err != nil {
			return nil, fmt.Errorf("removing %s: %w", root, err)
		}
		fallthrough
	case len(entries) == 0:
		if err := create(root, opts); err != nil {
			return nil, err
		}
	default:
		if err := checkLayout(root); err != nil {
			return nil, err
		}
	}

	return open(root, opts.Plugins, opts.Environ)
}

// Open opens an existing project.
func Open(root string, registry *plugins.Registry) (*Project, error) {
	root, err := absRoot(root)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		registry = plugins.Default()
	}
	if err := checkLayout(root); err != nil {
		return nil, err
	}
	return open(root, registry, nil)
}

// Find walks from lookupPath up to the filesystem root and returns the
// first directory holding a settings file.
func Find(lookupPath string) (string, error) {
	dir, err := absRoot(lookupPath)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, SettingsFile)); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", oerrors.NewNotFoundError(
				fmt.Sprintf("no %s found in %s or any parent directory", SettingsFile, lookupPath), lookupPath,
				"Create a project with 'pharaoh new' or pass --project")
		}
		dir = parent
	}
}

func absRoot(root string) (string, error) {
	root, err := settings.ExpandPath(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	return abs, nil
}

func checkLayout(root string) error {
	var missing []string
	for _, rel := range []string{SettingsFile, ReportProjectDir} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			missing = append(missing, rel)
		}
	}
	if len(missing) > 0 {
		return oerrors.NewInconsistentProjectError(root, missing)
	}
	return os.MkdirAll(filepath.Join(root, ReportProjectDir, AssetBuildDir), 0o755)
}

func create(root string, opts Options) error {
	output.Info("Creating project", "path", root)
	if err := os.MkdirAll(filepath.Join(root, ReportProjectDir, AssetBuildDir), 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	defaults, err := settings.MergeDefaults(opts.Plugins.DefaultSources())
	if err != nil {
		return fmt.Errorf("loading default settings: %w", err)
	}
	if opts.CustomSettings != nil {
		defaults = mergedeep.Merge(defaults, opts.CustomSettings)
	}
	if err := settings.WriteFile(filepath.Join(root, SettingsFile), defaults); err != nil {
		return err
	}

	names := opts.Templates
	if len(names) == 0 {
		names = []string{DefaultProjectTemplate}
	}
	data := mergedeep.DeepCopy(opts.TemplateContext)
	data["project_name"] = filepath.Base(root)
	data["pharaoh_cli_path"] = cliPath()
	for _, name := range names {
		tmpl, err := opts.Plugins.Template(name, templates.KindProject)
		if err != nil {
			return err
		}
		if _, err := templates.Render(tmpl, root, data, templates.RenderOptions{Overwrite: true}); err != nil {
			return fmt.Errorf("rendering project template %s: %w", name, err)
		}
	}

	gitignore := filepath.Join(root, GitIgnoreFile)
	if _, err := os.Stat(gitignore); errors.Is(err, fs.ErrNotExist) {
		content := ""
		for _, line := range gitignoreLines {
			content += line + "\n"
		}
		if err := os.WriteFile(gitignore, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", GitIgnoreFile, err)
		}
	}
	return nil
}

func open(root string, registry *plugins.Registry, environ func() []string) (*Project, error) {
	res, err := settings.Open(settings.Options{
		ProjectFile: filepath.Join(root, SettingsFile),
		ProjectRoot: root,
		Defaults:    registry.DefaultSources(),
		Environ:     environ,
	})
	if err != nil {
		return nil, err
	}
	p := &Project{root: root, registry: registry, res: res}
	p.finder = asset.NewFinder(p.AssetBuild())

	if level, err := res.GetString("logging.level", settings.WithDefault("INFO")); err == nil {
		if err := output.SetLevel(level); err != nil {
			output.Warn("ignoring logging.level setting", "error", err)
		}
	}
	return p, nil
}

func cliPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "pharaoh"
	}
	return exe
}

// Root returns the absolute project root.
func (p *Project) Root() string { return p.root }

// SettingsFile returns the path of the project settings file.
func (p *Project) SettingsFile() string { return filepath.Join(p.root, SettingsFile) }

// ReportProject returns the report source directory.
func (p *Project) ReportProject() string { return filepath.Join(p.root, ReportProjectDir) }

// ComponentsDir returns the directory holding component sources.
func (p *Project) ComponentsDir() string {
	return filepath.Join(p.ReportProject(), ComponentsDir)
}

// AssetBuild returns the asset build directory.
func (p *Project) AssetBuild() string {
	return filepath.Join(p.ReportProject(), AssetBuildDir)
}

// ResourceCache returns the resource cache directory.
func (p *Project) ResourceCache() string {
	return filepath.Join(p.ReportProject(), ResourceCacheDir)
}

// ReportBuild returns the report output directory.
func (p *Project) ReportBuild() string { return filepath.Join(p.root, ReportBuildDir) }

// Settings returns the settings resolver of the project.
func (p *Project) Settings() *settings.Resolver { return p.res }

// Finder returns the asset finder of the project.
func (p *Project) Finder() *asset.Finder { return p.finder }

// Plugins returns the plugin registry.
func (p *Project) Plugins() *plugins.Registry { return p.registry }

// AssetTemplates implements report.Project.
func (p *Project) AssetTemplates() report.AssetTemplates { return p.registry }

// Registrar returns a registrar writing into the asset build directory of
// component. The generation coordinator attaches a metadata stack.
func (p *Project) Registrar(component string) *asset.Registrar {
	return &asset.Registrar{
		BuildDir:  p.AssetBuild(),
		Component: component,
		Templates: p.registry,
		FS:        afero.NewOsFs(),
	}
}
