package asset

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

// Group is a set of assets sharing one metadata value.
type Group struct {
	Key    string
	Assets []*Asset

	value any
}

// GroupBy groups assets by the metadata value at the dotted path key.
// Assets lacking the key go to the group named def, or fail the call if
// def is nil. Groups are ordered by key; numeric keys compare numerically.
func GroupBy(assets []*Asset, key string, def *string) ([]Group, error) {
	return groupBy(assets, key, def, false)
}

// GroupByReverse is GroupBy with the group order reversed.
func GroupByReverse(assets []*Asset, key string, def *string) ([]Group, error) {
	return groupBy(assets, key, def, true)
}

func groupBy(assets []*Asset, key string, def *string, reverse bool) ([]Group, error) {
	index := map[string]int{}
	var groups []Group
	for _, a := range assets {
		v, ok := a.Lookup(key)
		if !ok {
			if def == nil {
				return nil, oerrors.NewNotFoundError(
					fmt.Sprintf("%s has no metadata key %q", a, key), a.InfoFile,
					"Pass a default group for assets without the key")
			}
			v = *def
		}
		name := groupName(v)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Key: name, value: v})
		}
		groups[i].Assets = append(groups[i].Assets, a)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		less := lessKey(groups[i], groups[j])
		if reverse {
			return lessKey(groups[j], groups[i])
		}
		return less
	})
	return groups, nil
}

func groupName(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

func lessKey(a, b Group) bool {
	af, aerr := cast.ToFloat64E(a.value)
	bf, berr := cast.ToFloat64E(b.value)
	if aerr == nil && berr == nil && isNumeric(a.value) && isNumeric(b.value) {
		return af < bf
	}
	return a.Key < b.Key
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}
