package asset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/pharaoh-reports/pharaoh/internal/query"
)

// Finder indexes the assets below a build directory by component. The
// index is a cache: it is populated lazily and can be rebuilt from disk at
// any time. A Finder is safe for concurrent use.
type Finder struct {
	root string
	fs   afero.Fs

	mu         sync.RWMutex
	assets     map[string][]*Asset
	discovered bool
}

// NewFinder returns a Finder for the OS directory root.
func NewFinder(root string) *Finder {
	return NewFinderFS(afero.NewOsFs(), root)
}

// NewFinderFS returns a Finder on an arbitrary file system.
func NewFinderFS(fsys afero.Fs, root string) *Finder {
	return &Finder{root: root, fs: fsys, assets: map[string][]*Asset{}}
}

// Root returns the indexed build directory.
func (f *Finder) Root() string {
	return f.root
}

// Discover scans the build directory. Without arguments the whole index is
// replaced; otherwise only the named components are rescanned.
func (f *Finder) Discover(components ...string) error {
	if len(components) == 0 {
		found, err := f.scanAll()
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.assets = found
		f.discovered = true
		f.mu.Unlock()
		return nil
	}

	found := make(map[string][]*Asset, len(components))
	for _, c := range components {
		list, err := f.scanComponent(c)
		if err != nil {
			return err
		}
		found[c] = list
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for c, list := range found {
		if len(list) == 0 {
			delete(f.assets, c)
			continue
		}
		f.assets[c] = list
	}
	f.discovered = true
	return nil
}

func (f *Finder) scanAll() (map[string][]*Asset, error) {
	out := map[string][]*Asset{}
	entries, err := afero.ReadDir(f.fs, f.root)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", f.root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		list, err := f.scanComponent(e.Name())
		if err != nil {
			return nil, err
		}
		if len(list) > 0 {
			out[e.Name()] = list
		}
	}
	return out, nil
}

func (f *Finder) scanComponent(component string) ([]*Asset, error) {
	dir := filepath.Join(f.root, component)
	entries, err := afero.ReadDir(f.fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var out []*Asset
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != InfoSuffix {
			continue
		}
		a, err := load(f.fs, filepath.Join(dir, e.Name()), entries)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *Finder) ensure() error {
	f.mu.RLock()
	done := f.discovered
	f.mu.RUnlock()
	if done {
		return nil
	}
	return f.Discover()
}

// Components returns the names of all components that have assets.
func (f *Finder) Components() ([]string, error) {
	if err := f.ensure(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.assets))
	for c := range f.assets {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Iter returns the assets of the given components, or of all components if
// none are named. Unknown components contribute nothing.
func (f *Finder) Iter(components ...string) ([]*Asset, error) {
	if err := f.ensure(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(components) == 0 {
		for c := range f.assets {
			components = append(components, c)
		}
		sort.Strings(components)
	}
	var out []*Asset
	for _, c := range components {
		out = append(out, f.assets[c]...)
	}
	return out, nil
}

// ByID returns the asset with the given ID.
func (f *Finder) ByID(id string) (*Asset, bool) {
	all, err := f.Iter()
	if err != nil {
		return nil, false
	}
	for _, a := range all {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Search returns the assets whose info record satisfies expr, ordered by
// their registration index. A blank expression matches nothing, as does an
// expression that fails to compile or evaluate.
func (f *Finder) Search(expr string, components ...string) ([]*Asset, error) {
	if strings.TrimSpace(expr) == "" {
		return []*Asset{}, nil
	}
	candidates, err := f.Iter(components...)
	if err != nil {
		return nil, err
	}
	compiled, err := query.Compile(expr)
	if err != nil {
		return []*Asset{}, nil
	}

	seen := make(map[string]bool, len(candidates))
	found := []*Asset{}
	for _, a := range candidates {
		if seen[a.ID] || !compiled.Match(a.Context) {
			continue
		}
		seen[a.ID] = true
		found = append(found, a)
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Index() < found[j].Index()
	})
	return found, nil
}
