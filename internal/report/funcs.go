package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/pharaoh-reports/pharaoh/internal/asset"
	"github.com/pharaoh-reports/pharaoh/internal/component"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
)

// funcs returns the functions available to a report document in docDir.
func (r *renderer) funcs(docDir string, doc Document) template.FuncMap {
	fm := baseFuncs(docDir)
	finder := r.project.Finder()
	res := r.project.Settings()

	fm["search_assets"] = func(expr string, components ...string) ([]*asset.Asset, error) {
		return finder.Search(expr, components...)
	}
	fm["asset_groupby"] = func(assets []*asset.Asset, key string, def ...string) ([]asset.Group, error) {
		if len(def) > 0 {
			return asset.GroupBy(assets, key, &def[0])
		}
		return asset.GroupBy(assets, key, nil)
	}
	fm["render_asset"] = func(a *asset.Asset) (string, error) {
		return r.renderAsset(docDir, a)
	}
	fm["get_setting"] = func(key string, def ...any) (any, error) {
		if len(def) > 0 {
			return res.Get(key, settings.WithDefault(def[0]))
		}
		return res.Get(key)
	}
	fm["find_components"] = func(expr string) ([]component.Component, error) {
		return r.project.FindComponents(expr)
	}
	fm["search_error_assets"] = func() (map[string][]*asset.Asset, error) {
		names, err := finder.Components()
		if err != nil {
			return nil, err
		}
		out := map[string][]*asset.Asset{}
		for _, name := range names {
			found, err := finder.Search(fmt.Sprintf("asset_type == %q", asset.ErrorAssetType), name)
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				out[name] = found
			}
		}
		return out, nil
	}
	fm["templating_context"] = func(name string, components ...string) (any, error) {
		if len(components) == 0 && doc.Component.Name != "" {
			components = []string{doc.Component.Name}
		}
		found, err := finder.Search(fmt.Sprintf("%s == %q", asset.TemplatingContextKey, name), components...)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no templating context named %q", name)
		}
		return found[len(found)-1].Data()
	}
	return fm
}

// baseFuncs are available to documents and asset templates.
func baseFuncs(docDir string) template.FuncMap {
	return template.FuncMap{
		"heading": heading,
		"h1":      func(text string) (string, error) { return heading(text, 1) },
		"h2":      func(text string) (string, error) { return heading(text, 2) },
		"h3":      func(text string) (string, error) { return heading(text, 3) },
		"rand_id": func() string {
			return "i" + strings.ReplaceAll(uuid.NewString(), "-", "")
		},
		"read_text": func(path string) (string, error) {
			raw, err := os.ReadFile(resolveRel(docDir, path))
			return string(raw), err
		},
		"fglob": func(pattern string) ([]string, error) {
			matches, err := filepath.Glob(filepath.Join(docDir, pattern))
			if err != nil {
				return nil, err
			}
			out := make([]string, 0, len(matches))
			for _, m := range matches {
				rel, err := filepath.Rel(docDir, m)
				if err != nil {
					return nil, err
				}
				out = append(out, filepath.ToSlash(rel))
			}
			sort.Strings(out)
			return out, nil
		},
		"raise": func(msg string) (string, error) {
			return "", errors.New(msg)
		},
		"assert_true": func(ok bool, msg ...string) (string, error) {
			if ok {
				return "", nil
			}
			if len(msg) > 0 {
				return "", errors.New(msg[0])
			}
			return "", errors.New("assertion failed")
		},
		"or_default": func(def, v any) any {
			if v == nil || cast.ToString(v) == "" {
				return def
			}
			return v
		},
		"to_json": func(v any) (string, error) {
			raw, err := json.Marshal(v)
			return string(raw), err
		},
		"to_yaml": func(v any) (string, error) {
			raw, err := yaml.Marshal(v)
			return strings.TrimRight(string(raw), "\n"), err
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"join":  strings.Join,
	}
}

// heading renders a Markdown heading of level 1 to 6.
func heading(text string, level int) (string, error) {
	if level < 1 || level > 6 {
		return "", fmt.Errorf("heading level must be between 1 and 6, got %d", level)
	}
	text = strings.TrimSpace(strings.NewReplacer("\r", "", "\n", " ").Replace(text))
	if text == "" {
		return "", errors.New("heading text must not be empty")
	}
	return strings.Repeat("#", level) + " " + text, nil
}

func resolveRel(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
