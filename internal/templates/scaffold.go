package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

// Scaffold delimiters. Rendered files may contain Go template actions with
// the default delimiters for the report build stage.
const (
	leftDelim  = "[["
	rightDelim = "]]"
)

// Render renders tmpl into targetDir and returns the created paths relative
// to targetDir.
//
// Path segments containing [[ ]] actions are rendered; a segment that
// renders to an empty string excludes the entry (and, for directories, its
// subtree). Files ending in .tmpl are rendered and lose the suffix, all
// other files are copied unchanged.
func Render(tmpl Template, targetDir string, data map[string]any, opts RenderOptions) ([]string, error) {
	if tmpl.FS == nil {
		return nil, oerrors.NewNotFoundError(fmt.Sprintf("template %q has no files", tmpl.Name), "", "")
	}
	root := tmpl.Root
	if root == "" {
		root = "."
	}

	var created []string

	err := fs.WalkDir(tmpl.FS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, ok := relPath(root, p)
		if !ok {
			return nil
		}

		renderedRel, skip, err := renderPath(rel, data)
		if err != nil {
			return fmt.Errorf("rendering path %s of template %s: %w", rel, tmpl.Name, err)
		}
		if skip {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		targetPath := filepath.Join(targetDir, filepath.FromSlash(renderedRel))
		if d.IsDir() {
			return os.MkdirAll(targetPath, 0o755)
		}

		content, err := fs.ReadFile(tmpl.FS, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}

		if strings.HasSuffix(targetPath, ".tmpl") {
			targetPath = strings.TrimSuffix(targetPath, ".tmpl")
			renderedRel = strings.TrimSuffix(renderedRel, ".tmpl")
			if content, err = renderText(p, string(content), data); err != nil {
				return err
			}
		}

		if !opts.Overwrite {
			if _, err := os.Stat(targetPath); err == nil {
				return fmt.Errorf("file %s already exists", targetPath)
			}
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", targetPath, err)
		}
		if err := os.WriteFile(targetPath, content, filePerm(tmpl.FS, p)); err != nil {
			return fmt.Errorf("writing %s: %w", targetPath, err)
		}

		created = append(created, renderedRel)
		return nil
	})
	if err != nil {
		return created, err
	}

	if opts.ContextFile != "" {
		raw, err := json.MarshalIndent(data, "", " ")
		if err != nil {
			return created, fmt.Errorf("encoding template context: %w", err)
		}
		if err := os.WriteFile(filepath.Join(targetDir, opts.ContextFile), raw, 0o644); err != nil {
			return created, fmt.Errorf("writing template context: %w", err)
		}
	}

	return created, nil
}

// ListFiles returns the paths Render would create for data.
func ListFiles(tmpl Template, data map[string]any) ([]string, error) {
	root := tmpl.Root
	if root == "" {
		root = "."
	}

	var files []string
	err := fs.WalkDir(tmpl.FS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, ok := relPath(root, p)
		if !ok {
			return nil
		}
		renderedRel, skip, err := renderPath(rel, data)
		if err != nil {
			return err
		}
		if skip {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files = append(files, strings.TrimSuffix(renderedRel, ".tmpl"))
		}
		return nil
	})
	return files, err
}

// relPath returns p relative to the walk root; ok is false for the root itself.
func relPath(root, p string) (string, bool) {
	if p == root {
		return "", false
	}
	if root == "." {
		return p, true
	}
	return strings.TrimPrefix(p, root+"/"), true
}

func renderPath(rel string, data map[string]any) (string, bool, error) {
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		if !strings.Contains(part, leftDelim) {
			continue
		}
		out, err := renderText(part, part, data)
		if err != nil {
			return "", false, err
		}
		if strings.TrimSpace(string(out)) == "" {
			return "", true, nil
		}
		parts[i] = string(out)
	}
	return path.Join(parts...), false, nil
}

func renderText(name, text string, data map[string]any) ([]byte, error) {
	t, err := template.New(name).Delims(leftDelim, rightDelim).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}
	// missingkey=zero renders absent map keys as "<no value>".
	return bytes.ReplaceAll(buf.Bytes(), []byte("<no value>"), nil), nil
}

func filePerm(fsys fs.FS, p string) os.FileMode {
	info, err := fs.Stat(fsys, p)
	if err != nil || info.Mode().Perm()&0o111 == 0 {
		return 0o644
	}
	return 0o755
}

// FromDir builds a template from a directory on disk.
func FromDir(dir string, kind Kind) (Template, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Template{}, oerrors.NewNotFoundError(fmt.Sprintf("template directory %s not found", dir), dir, "")
	}
	if !info.IsDir() {
		return Template{}, oerrors.NewValidationError(fmt.Sprintf("%s is not a directory", dir), dir, "", "")
	}
	return Template{
		Name: filepath.Clean(dir),
		Kind: kind,
		FS:   os.DirFS(dir),
		Root: ".",
	}, nil
}
