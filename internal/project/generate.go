package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cast"

	"github.com/pharaoh-reports/pharaoh/internal/asset"
	"github.com/pharaoh-reports/pharaoh/internal/component"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/generate"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
)

const lockFile = ".lock"

// GenerateOptions tunes GenerateAssets.
type GenerateOptions struct {
	// Filters are case-insensitive regular expressions matched at the start
	// of component names. No filters select every component.
	Filters []string

	// Extra units run alongside the discovered asset scripts. Units of
	// components not selected by Filters are dropped.
	Extra []generate.Unit
}

// GenerateAssets clears the asset build directories of the selected
// components and runs their asset scripts. It returns the results of all
// units; failures are aggregated into a *errors.GenerationError.
func (p *Project) GenerateAssets(ctx context.Context, opts GenerateOptions) ([]generate.Result, error) {
	lock := flock.New(filepath.Join(p.AssetBuild(), lockFile))
	if err := os.MkdirAll(p.AssetBuild(), 0o755); err != nil {
		return nil, err
	}
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire asset build lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another asset generation is running for %s: %w", p.root, oerrors.ErrLocked)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			output.Warn("failed to release asset build lock", "error", err)
		}
	}()

	selected, err := p.selectComponents(opts.Filters)
	if err != nil {
		return nil, err
	}
	cfg, err := p.scriptConfig()
	if err != nil {
		return nil, err
	}
	workers, err := p.workers()
	if err != nil {
		return nil, err
	}

	output.Info("Generating assets", "components", len(selected), "workers", workers)

	var units []generate.Unit
	names := make([]string, 0, len(selected))
	chosen := make(map[string]bool, len(selected))
	for _, c := range selected {
		names = append(names, c.Name)
		chosen[c.Name] = true

		if err := os.RemoveAll(filepath.Join(p.AssetBuild(), c.Name)); err != nil {
			return nil, fmt.Errorf("clearing assets of %s: %w", c.Name, err)
		}
		if err := os.MkdirAll(filepath.Join(p.ResourceCache(), c.Name), 0o755); err != nil {
			return nil, err
		}
		resources, err := p.ResolveResources(c)
		if err != nil {
			return nil, err
		}
		scripts, err := generate.DiscoverScripts(filepath.Join(p.ComponentsDir(), c.Name), c.Name, cfg, resources)
		if err != nil {
			return nil, err
		}
		for _, s := range scripts {
			units = append(units, s)
		}
	}
	for _, u := range opts.Extra {
		if chosen[u.Component()] {
			units = append(units, u)
		}
	}

	coord := &generate.Coordinator{
		Workers:   workers,
		Registrar: p.Registrar,
	}
	results := coord.Run(ctx, units)

	if err := p.finder.Discover(names...); err != nil {
		return results, err
	}
	return results, generate.Aggregate(results)
}

// selectComponents returns the components matching any filter.
func (p *Project) selectComponents(filters []string) ([]component.Component, error) {
	list, err := p.Components()
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return list, nil
	}
	res := make([]*regexp.Regexp, 0, len(filters))
	for _, f := range filters {
		re, err := regexp.Compile(`(?i)^(?:` + f + `)`)
		if err != nil {
			return nil, oerrors.NewValidationError(fmt.Sprintf("invalid component filter %q: %v", f, err), "", "filter", "")
		}
		res = append(res, re)
	}
	var out []component.Component
	for _, c := range list {
		for _, re := range res {
			if re.MatchString(c.Name) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (p *Project) scriptConfig() (generate.ScriptConfig, error) {
	cfg := generate.ScriptConfig{ProjectRoot: p.root}

	raw, err := p.res.Get("asset_gen.interpreters", settings.WithDefault(map[string]any{}))
	if err != nil {
		return cfg, err
	}
	m, err := cast.ToStringMapE(raw)
	if err != nil {
		return cfg, oerrors.NewValidationError("interpreters must be a mapping", "", "asset_gen.interpreters", "")
	}
	if cfg.Interpreters, err = generate.Interpreters(m); err != nil {
		return cfg, err
	}

	pattern, err := p.res.GetString("asset_gen.script_ignore_pattern", settings.WithDefault(""))
	if err != nil {
		return cfg, err
	}
	if cfg.IgnorePattern, err = generate.CompileIgnorePattern(pattern); err != nil {
		return cfg, err
	}

	timeout, err := p.res.Get("asset_gen.script_timeout", settings.WithDefault(0))
	if err != nil {
		return cfg, err
	}
	seconds, err := cast.ToFloat64E(timeout)
	if err != nil || seconds < 0 {
		return cfg, oerrors.NewValidationError(
			fmt.Sprintf("script timeout must be a non-negative number of seconds, got %v", timeout),
			"", "asset_gen.script_timeout", "")
	}
	cfg.Timeout = time.Duration(seconds * float64(time.Second))
	return cfg, nil
}

func (p *Project) workers() (int, error) {
	raw, err := p.res.Get("asset_gen.worker_processes", settings.WithDefault(0))
	if err != nil {
		return 0, err
	}
	return generate.ParseWorkers(raw)
}

// RegisterAsset registers src for a component outside of asset generation.
func (p *Project) RegisterAsset(componentName, src string, opts asset.RegisterOptions) (*asset.Asset, error) {
	if _, err := p.Component(componentName); err != nil {
		return nil, err
	}
	a, err := p.Registrar(componentName).Register(src, opts)
	if err != nil {
		return nil, err
	}
	return a, p.finder.Discover(componentName)
}
