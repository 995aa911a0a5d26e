package settings

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
)

// resolveValue interpolates v recursively. chain holds the setting keys
// currently being resolved and detects reference cycles.
// Caller holds at least the read lock.
func (r *Resolver) resolveValue(v any, chain []string) (any, error) {
	switch val := v.(type) {
	case string:
		return r.resolveString(val, chain)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			resolved, err := r.resolveValue(item, chain)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			resolved, err := r.resolveValue(item, chain)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return mergedeep.DeepCopyValue(v), nil
	}
}

type segment struct {
	literal string
	expr    string
	isExpr  bool
}

// parseInterpolations splits s into literal and ${...} segments.
// "\${" produces a literal "${".
func parseInterpolations(s string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], `\${`):
			lit.WriteString("${")
			i += 3
		case strings.HasPrefix(s[i:], "${"):
			end := matchingBrace(s, i+2)
			if end < 0 {
				return nil, fmt.Errorf("unterminated interpolation in %q", s)
			}
			if lit.Len() > 0 {
				segs = append(segs, segment{literal: lit.String()})
				lit.Reset()
			}
			segs = append(segs, segment{expr: s[i+2 : end], isExpr: true})
			i = end + 1
		default:
			lit.WriteByte(s[i])
			i++
		}
	}
	if lit.Len() > 0 {
		segs = append(segs, segment{literal: lit.String()})
	}
	return segs, nil
}

func matchingBrace(s string, start int) int {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (r *Resolver) resolveString(s string, chain []string) (any, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	segs, err := parseInterpolations(s)
	if err != nil {
		return nil, err
	}

	// A value that is exactly one interpolation keeps the referenced type.
	if len(segs) == 1 && segs[0].isExpr {
		return r.evalExpr(segs[0].expr, chain)
	}

	var b strings.Builder
	for _, seg := range segs {
		if !seg.isExpr {
			b.WriteString(seg.literal)
			continue
		}
		v, err := r.evalExpr(seg.expr, chain)
		if err != nil {
			return nil, err
		}
		str, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("interpolating ${%s} into %q: %w", seg.expr, s, err)
		}
		b.WriteString(str)
	}
	return b.String(), nil
}

func (r *Resolver) evalExpr(expr string, chain []string) (any, error) {
	expr = strings.TrimSpace(expr)

	if name, argStr, isCall := strings.Cut(expr, ":"); isCall {
		fn, ok := r.resolvers[name]
		if !ok {
			return nil, oerrors.NewNotFoundError(fmt.Sprintf("unknown settings resolver %q", name), "", "")
		}
		var args []string
		switch {
		case argStr == "":
		case r.rawArgs[name]:
			args = []string{argStr}
		default:
			for _, a := range strings.Split(argStr, ",") {
				args = append(args, strings.TrimSpace(a))
			}
		}
		return fn(r, args)
	}

	key := strings.ToLower(expr)
	for _, seen := range chain {
		if seen == key {
			return nil, fmt.Errorf("settings interpolation cycle: %s -> %s", strings.Join(chain, " -> "), key)
		}
	}

	v, ok := mergedeep.Lookup(r.merged, key)
	if !ok {
		return nil, fmt.Errorf("interpolating ${%s}: %w", expr, oerrors.NewSettingNotFoundError(key))
	}
	return r.resolveValue(v, append(append([]string(nil), chain...), key))
}
