package project

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/report"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
)

// BuildReport renders the report and runs the configured builder. See
// report.Build for the status semantics.
func (p *Project) BuildReport(ctx context.Context, catchErrors bool) (int, error) {
	if err := p.CheckTemplateDependencies(); err != nil {
		return -1, err
	}
	return report.Build(ctx, p, catchErrors)
}

// CheckTemplateDependencies fails with ErrProjectInconsistent when a
// component template needs a template that no component renders.
func (p *Project) CheckTemplateDependencies() error {
	list, err := p.Components()
	if err != nil {
		return err
	}
	known, err := p.registry.Templates()
	if err != nil {
		return err
	}
	needs := make(map[string][]string, len(known))
	for _, t := range known {
		needs[t.Name] = t.Needs
	}

	used := map[string]bool{}
	required := map[string]bool{}
	for _, c := range list {
		for _, name := range c.Templates {
			deps, ok := needs[name]
			if !ok {
				continue
			}
			used[name] = true
			for _, d := range deps {
				required[d] = true
			}
		}
	}

	var missing []string
	for name := range required {
		if !used[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return oerrors.NewTemplateDependencyError(missing)
	}
	return nil
}

// ArchiveReport zips the report build directory. dest may be empty (use
// report.archive_name), a directory, or a file path; relative paths are
// relative to the project root. It returns the archive path.
func (p *Project) ArchiveReport(dest string) (string, error) {
	src := p.ReportBuild()
	if _, err := os.Stat(src); err != nil {
		return "", oerrors.NewNotFoundError("the report has not been built yet", src, "Run 'pharaoh build' first")
	}

	name, err := p.res.GetString("report.archive_name", settings.WithDefault("report.zip"))
	if err != nil {
		return "", err
	}
	if dest == "" {
		dest = name
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(p.root, dest)
	}
	if filepath.Ext(dest) == "" {
		dest = filepath.Join(dest, name)
	}
	if filepath.Ext(dest) != ".zip" {
		return "", oerrors.NewValidationError(
			fmt.Sprintf("unsupported archive format %q", filepath.Ext(dest)), dest, "", "Use a .zip destination")
	}
	if within(src, dest) {
		return "", oerrors.NewValidationError(
			"the archive cannot be written into the report build directory", dest, "",
			"Choose a destination outside of "+src)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := zipDir(src, dest); err != nil {
		return "", fmt.Errorf("archiving report: %w", err)
	}
	output.Info("Created archive", "path", dest)
	return dest, nil
}

// within reports whether path lies below dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func zipDir(src, dest string) (err error) {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	defer func() {
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	}()

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil || rel == "." {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
			_, err = zw.CreateHeader(hdr)
			return err
		}
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
}
