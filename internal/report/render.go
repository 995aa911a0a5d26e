package report

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/pharaoh-reports/pharaoh/internal/asset"
	"github.com/pharaoh-reports/pharaoh/internal/component"
	"github.com/pharaoh-reports/pharaoh/internal/fsutil"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// renderer renders one report build.
type renderer struct {
	project    Project
	stage      string
	components map[string]component.Component

	// referenced holds the IDs of assets already copied by a document.
	referenced map[string]bool
}

func newRenderer(p Project, stage string) (*renderer, error) {
	list, err := p.Components()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]component.Component, len(list))
	for _, c := range list {
		byName[c.Name] = c
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return nil, err
	}
	return &renderer{project: p, stage: stage, components: byName, referenced: map[string]bool{}}, nil
}

// renderTree renders every document of the report project into the stage
// and copies all other files.
func (r *renderer) renderTree() error {
	src := r.project.ReportProject()
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] && rel != "." {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(r.stage, rel), 0o755)
		}
		if strings.HasSuffix(d.Name(), DocumentSuffix) {
			return r.renderDocument(p, rel)
		}
		return fsutil.CopyFile(afero.NewOsFs(), p, filepath.Join(r.stage, rel))
	})
}

// Document is the data a report document is rendered with.
type Document struct {
	// Path is the output path relative to the build root.
	Path string

	// Component is the component the document belongs to, zero for
	// documents outside a component directory.
	Component component.Component
}

func (r *renderer) renderDocument(src, rel string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	outRel := strings.TrimSuffix(rel, DocumentSuffix)
	doc := Document{Path: filepath.ToSlash(outRel), Component: r.components[componentOf(rel)]}
	docDir := filepath.Join(r.stage, filepath.Dir(outRel))

	tmpl, err := template.New(rel).Funcs(r.funcs(docDir, doc)).Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", rel, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return fmt.Errorf("rendering %s: %w", rel, err)
	}
	output.Debug("rendered document", "path", doc.Path)
	return os.WriteFile(filepath.Join(r.stage, outRel), buf.Bytes(), 0o644)
}

// assetView is the data an asset template is rendered with.
type assetView struct {
	Asset *asset.Asset

	r      *renderer
	docDir string
	path   string
}

// Path copies the artifact next to the rendering document on first use and
// returns its relative link.
func (v *assetView) Path() (string, error) {
	if v.path != "" {
		return v.path, nil
	}
	if _, err := v.Asset.CopyTo(filepath.Join(v.docDir, AssetsDir)); err != nil {
		return "", fmt.Errorf("copying %s: %w", v.Asset, err)
	}
	v.r.referenced[v.Asset.ID] = true
	v.path = AssetsDir + "/" + v.Asset.Name()
	return v.path, nil
}

// renderAsset renders a with its asset template.
func (r *renderer) renderAsset(docDir string, a *asset.Asset) (string, error) {
	if a == nil {
		return "", fmt.Errorf("render_asset: no asset given")
	}
	name := a.Template()
	if name == "" {
		return "", fmt.Errorf("render_asset: %s has no template", a)
	}
	if v, _ := a.Lookup("asset_type"); v == asset.ErrorAssetType {
		msg, _ := a.Lookup("error_message")
		output.Warn("Rendering error asset", "component", a.Component(), "error", msg)
	}
	text, err := r.project.AssetTemplates().AssetTemplate(name)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Funcs(baseFuncs(docDir)).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing asset template %q: %w", name, err)
	}
	view := &assetView{Asset: a, r: r, docDir: docDir}
	if a.Copy2Build() {
		if _, err := view.Path(); err != nil {
			return "", err
		}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("rendering %s with template %q: %w", a, name, err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// copyFlaggedAssets copies copy2build assets that no document referenced
// into their component's build directory.
func (r *renderer) copyFlaggedAssets() error {
	all, err := r.project.Finder().Iter()
	if err != nil {
		return err
	}
	for _, a := range all {
		if !a.Copy2Build() || r.referenced[a.ID] {
			continue
		}
		dir := filepath.Join(r.stage, "components", a.Component(), AssetsDir)
		if _, err := a.CopyTo(dir); err != nil {
			return fmt.Errorf("copying %s: %w", a, err)
		}
	}
	return nil
}
