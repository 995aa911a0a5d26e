// Package settings resolves pharaoh settings from three layered namespaces.
//
// The default namespace is contributed by plugins, the project namespace is
// the project's pharaoh.yaml and the env namespace is built from
// PHARAOH-prefixed environment variables. The effective settings are the
// deep merge default <- project <- env; string values may reference other
// settings with ${dot.path} or call a resolver with ${name:args}.
package settings

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
)

// Namespace names one settings layer.
type Namespace string

const (
	// NamespaceAll addresses every layer at once.
	NamespaceAll Namespace = "all"
	// NamespaceDefault holds plugin-provided defaults.
	NamespaceDefault Namespace = "default"
	// NamespaceProject holds the project settings file.
	NamespaceProject Namespace = "project"
	// NamespaceEnv holds values from environment variables.
	NamespaceEnv Namespace = "env"
)

// precedence lists the layers from lowest to highest priority.
var precedence = []Namespace{NamespaceDefault, NamespaceProject, NamespaceEnv}

// DefaultsSource contributes one map to the default namespace.
type DefaultsSource func() (map[string]any, error)

// Options configures a Resolver.
type Options struct {
	// ProjectFile is the project settings file. Empty disables the project layer.
	ProjectFile string

	// ProjectRoot is returned by the ${pharaoh.project_dir:} resolver.
	ProjectRoot string

	// Defaults are reduced with a conflict-checking merge into the default layer.
	Defaults []DefaultsSource

	// Environ returns the environment; defaults to os.Environ.
	Environ func() []string

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Resolver holds the settings layers and their merged view.
// It is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	opts      Options
	layers    map[Namespace]map[string]any
	merged    map[string]any
	resolvers map[string]ResolverFunc
	rawArgs   map[string]bool
}

// NewResolver creates a Resolver with empty layers and the built-in resolvers.
// Call Load to populate it.
func NewResolver(opts Options) *Resolver {
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Resolver{
		opts: opts,
		layers: map[Namespace]map[string]any{
			NamespaceDefault: {},
			NamespaceProject: {},
			NamespaceEnv:     {},
		},
		merged:    map[string]any{},
		resolvers: map[string]ResolverFunc{},
		rawArgs:   map[string]bool{},
	}
	registerBuiltins(r)
	return r
}

// Open creates a Resolver and loads all namespaces.
func Open(opts Options) (*Resolver, error) {
	r := NewResolver(opts)
	if err := r.Load(NamespaceAll); err != nil {
		return nil, err
	}
	return r, nil
}

// Load (re)reads one namespace, or all of them, and rebuilds the merged view.
func (r *Resolver) Load(ns Namespace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	targets := []Namespace{ns}
	if ns == NamespaceAll {
		targets = precedence
	}

	for _, target := range targets {
		var (
			layer map[string]any
			err   error
		)
		switch target {
		case NamespaceDefault:
			layer, err = r.loadDefaults()
		case NamespaceProject:
			layer, err = ReadFile(r.opts.ProjectFile)
		case NamespaceEnv:
			layer = envLayer(r.opts.Environ())
		default:
			return oerrors.NewValidationError(
				fmt.Sprintf("unknown settings namespace %q", target), "", "namespace",
				"Use one of: all, default, project, env")
		}
		if err != nil {
			return fmt.Errorf("loading %s settings: %w", target, err)
		}
		r.layers[target] = layer
	}

	r.remerge()
	return nil
}

func (r *Resolver) loadDefaults() (map[string]any, error) {
	return MergeDefaults(r.opts.Defaults)
}

// MergeDefaults reduces default contributions with a conflict-checking merge.
func MergeDefaults(sources []DefaultsSource) (map[string]any, error) {
	out := map[string]any{}
	for _, src := range sources {
		m, err := src()
		if err != nil {
			return nil, err
		}
		if out, err = mergedeep.SafeMerge(out, m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// remerge rebuilds the effective view. Caller holds the write lock.
func (r *Resolver) remerge() {
	merged := map[string]any{}
	for _, ns := range precedence {
		merged = mergedeep.Merge(merged, r.layers[ns])
	}
	r.merged = merged
}

// GetOption customizes Get.
type GetOption func(*getOptions)

type getOptions struct {
	def    any
	hasDef bool
	raw    bool
}

// WithDefault returns def instead of a not-found error.
func WithDefault(def any) GetOption {
	return func(o *getOptions) {
		o.def = def
		o.hasDef = true
	}
}

// Raw skips interpolation.
func Raw() GetOption {
	return func(o *getOptions) {
		o.raw = true
	}
}

// Get returns the effective value of a dotted, case-insensitive key.
// Map and list values are deep copies.
func (r *Resolver) Get(key string, opts ...GetOption) (any, error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := mergedeep.Lookup(r.merged, key)
	if !ok {
		if o.hasDef {
			return o.def, nil
		}
		return nil, oerrors.NewSettingNotFoundError(key)
	}
	if o.raw {
		return mergedeep.DeepCopyValue(v), nil
	}
	return r.resolveValue(v, []string{key})
}

// GetString returns a setting converted to a string.
func (r *Resolver) GetString(key string, opts ...GetOption) (string, error) {
	v, err := r.Get(key, opts...)
	if err != nil {
		return "", err
	}
	return cast.ToStringE(v)
}

// GetInt returns a setting converted to an int.
func (r *Resolver) GetInt(key string, opts ...GetOption) (int, error) {
	v, err := r.Get(key, opts...)
	if err != nil {
		return 0, err
	}
	return cast.ToIntE(v)
}

// GetBool returns a setting converted to a bool.
func (r *Resolver) GetBool(key string, opts ...GetOption) (bool, error) {
	v, err := r.Get(key, opts...)
	if err != nil {
		return false, err
	}
	return cast.ToBoolE(v)
}

// GetStringSlice returns a setting converted to a string slice.
func (r *Resolver) GetStringSlice(key string, opts ...GetOption) ([]string, error) {
	v, err := r.Get(key, opts...)
	if err != nil {
		return nil, err
	}
	return cast.ToStringSliceE(v)
}

// Put sets a value in the project namespace. A value for the same key in the
// env namespace still takes precedence in the merged view.
func (r *Resolver) Put(key string, value any) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	mergedeep.Set(r.layers[NamespaceProject], key, mergedeep.DeepCopyValue(value))
	r.remerge()
	return nil
}

// Save writes the project namespace to the project settings file. With
// includeEnv the env namespace is merged on top before writing.
func (r *Resolver) Save(includeEnv bool) error {
	r.mu.RLock()
	data := mergedeep.DeepCopy(r.layers[NamespaceProject])
	if includeEnv {
		data = mergedeep.Merge(data, r.layers[NamespaceEnv])
	}
	path := r.opts.ProjectFile
	r.mu.RUnlock()

	if path == "" {
		return oerrors.NewValidationError("no project settings file configured", "", "", "")
	}
	return WriteFile(path, data)
}

// Effective returns a copy of the merged settings, interpolated when resolve is set.
func (r *Resolver) Effective(resolve bool) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !resolve {
		return mergedeep.DeepCopy(r.merged), nil
	}
	out, err := r.resolveValue(r.merged, nil)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

// Layer returns a copy of one namespace.
func (r *Resolver) Layer(ns Namespace) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return mergedeep.DeepCopy(r.layers[ns])
}

// ProjectFile returns the configured project settings file.
func (r *Resolver) ProjectFile() string {
	return r.opts.ProjectFile
}

func normalizeKey(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", oerrors.NewValidationError("setting key must not be empty", "", "key", "")
	}
	return key, nil
}
