// Package report renders the report project into a build directory and
// hands the result to an external documentation builder.
package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pharaoh-reports/pharaoh/internal/asset"
	"github.com/pharaoh-reports/pharaoh/internal/component"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
)

// Names inside the build directory.
const (
	ResolvedSettingsFile = "pharaoh.resolved.yaml"
	SourceDir            = ".source"
	DocumentSuffix       = ".gotmpl"
	AssetsDir            = "assets"
)

// skipDirs are never copied into the build.
var skipDirs = map[string]bool{
	".asset_build":    true,
	".resource_cache": true,
	"asset_scripts":   true,
}

// AssetTemplates returns the source of an asset template by name.
type AssetTemplates interface {
	AssetTemplate(name string) (string, error)
}

// Project is what the report builder needs from a project.
type Project interface {
	ReportProject() string
	ReportBuild() string
	Settings() *settings.Resolver
	Finder() *asset.Finder
	AssetTemplates() AssetTemplates
	Components() ([]component.Component, error)
	FindComponents(expr string) ([]component.Component, error)
}

// Build renders the report and runs the configured builder. It returns
// the builder's exit status, 0 when no builder is configured. With
// catchErrors, failures are logged and reported as status -1 instead of
// an error.
func Build(ctx context.Context, p Project, catchErrors bool) (int, error) {
	status, err := build(ctx, p)
	if err == nil {
		return status, nil
	}
	if catchErrors {
		output.Error("errors occurred during report build", "error", err)
		return -1, nil
	}
	return -1, fmt.Errorf("%w: %w", oerrors.ErrBuild, err)
}

func build(ctx context.Context, p Project) (int, error) {
	res := p.Settings()
	builder, err := res.GetString("report.builder", settings.WithDefault("html"))
	if err != nil {
		return 0, err
	}
	command, err := builderCommand(res)
	if err != nil {
		return 0, err
	}

	out := p.ReportBuild()
	if err := clearDir(out); err != nil {
		return 0, err
	}
	if err := writeResolvedSettings(res, filepath.Join(out, ResolvedSettingsFile)); err != nil {
		return 0, err
	}

	stage := out
	if len(command) > 0 {
		stage = filepath.Join(out, SourceDir)
	}
	output.Info("Rendering report", "builder", builder, "destination", stage)

	r, err := newRenderer(p, stage)
	if err != nil {
		return 0, err
	}
	if err := r.renderTree(); err != nil {
		return 0, err
	}
	if err := r.copyFlaggedAssets(); err != nil {
		return 0, err
	}

	if len(command) == 0 {
		output.Info("Report rendered", "path", out)
		return 0, nil
	}
	return runBuilder(ctx, command, stage, out, builder)
}

// clearDir empties dir, creating it if needed.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("cleaning build directory: %w", err)
		}
	}
	return nil
}

func writeResolvedSettings(res *settings.Resolver, path string) error {
	resolved, err := res.Effective(true)
	if err != nil {
		return fmt.Errorf("resolving settings: %w", err)
	}
	raw, err := yaml.Marshal(resolved)
	if err != nil {
		return fmt.Errorf("encoding resolved settings: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// componentOf returns the component name of a document path relative to
// the report project, empty outside components/<name>/.
func componentOf(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) >= 3 && parts[0] == "components" {
		return parts[1]
	}
	return ""
}
