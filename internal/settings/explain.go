package settings

import (
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// ResolvedValue describes where an effective setting came from.
type ResolvedValue struct {
	// Key is the dotted setting key.
	Key string
	// Value is the effective, uninterpolated value.
	Value any
	// Source is the namespace that supplied Value.
	Source Namespace
	// Shadowed contains values of lower-precedence namespaces that were overridden.
	Shadowed map[Namespace]any
}

// Explain reports which namespace supplies key and which values it shadows.
func (r *Resolver) Explain(key string) (ResolvedValue, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return ResolvedValue{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := ResolvedValue{Key: key, Shadowed: make(map[Namespace]any)}
	value, ok := mergedeep.Lookup(r.merged, key)
	if !ok {
		return result, oerrors.NewSettingNotFoundError(key)
	}
	result.Value = mergedeep.DeepCopyValue(value)

	for i := len(precedence) - 1; i >= 0; i-- {
		ns := precedence[i]
		v, ok := mergedeep.Lookup(r.layers[ns], key)
		if !ok {
			continue
		}
		if result.Source == "" {
			result.Source = ns
			continue
		}
		result.Shadowed[ns] = mergedeep.DeepCopyValue(v)
	}
	return result, nil
}

// LogResolvedValues logs settings resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("setting resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
