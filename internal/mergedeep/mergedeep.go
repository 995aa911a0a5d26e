// Package mergedeep merges nested map[string]any trees.
//
// Two operations exist: Merge lets the source win on conflicting leaves,
// SafeMerge rejects conflicting leaves. Equal leaves are never a conflict.
package mergedeep

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

// Merge deep-merges src into dst. Nested maps are merged recursively,
// every other src value replaces the dst value. dst is modified and returned;
// a nil dst is allocated.
func Merge(dst, src map[string]any) map[string]any {
	out, _ := merge(dst, src, nil, false)
	return out
}

// SafeMerge deep-merges src into dst like Merge but fails with a
// *errors.ConflictError when both sides hold different non-map values
// for the same key.
func SafeMerge(dst, src map[string]any) (map[string]any, error) {
	return merge(dst, src, nil, true)
}

func merge(dst, src map[string]any, path []string, safe bool) (map[string]any, error) {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, sv := range src {
		dv, exists := dst[key]
		if !exists {
			dst[key] = DeepCopyValue(sv)
			continue
		}

		dm, dIsMap := dv.(map[string]any)
		sm, sIsMap := sv.(map[string]any)
		switch {
		case dIsMap && sIsMap:
			merged, err := merge(dm, sm, append(path, key), safe)
			if err != nil {
				return dst, err
			}
			dst[key] = merged
		case Equal(dv, sv):
		case safe:
			return dst, &oerrors.ConflictError{Path: strings.Join(append(path, key), ".")}
		default:
			dst[key] = DeepCopyValue(sv)
		}
	}
	return dst, nil
}

// DeepCopy returns a copy of m sharing no maps or slices with it.
func DeepCopy(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return DeepCopyValue(m).(map[string]any)
}

// DeepCopyValue copies nested maps and slices; other values are returned as-is.
func DeepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = DeepCopyValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[cast.ToString(k)] = DeepCopyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = DeepCopyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Equal compares two leaves. Numbers compare by value regardless of their
// Go type, so an int 1 read from YAML equals a float64 1 read from JSON.
func Equal(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		return cast.ToFloat64(a) == cast.ToFloat64(b)
	}
	return reflect.DeepEqual(a, b)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// Lookup walks a dotted path through nested maps.
func Lookup(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores value at a dotted path, creating intermediate maps and
// replacing non-map intermediates.
func Set(m map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	node := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[part] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
}
