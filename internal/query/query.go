// Package query evaluates asset and component filter expressions.
//
// Expressions use the HCL native expression syntax and are evaluated with
// the top-level keys of a metadata record as variables:
//
//	asset.index > 2 && startswith(asset.name, "plot")
//	component_name == "overview" || contains(tags, "summary")
//
// Only expressions are accepted: there are no statements, no assignments
// and no access to the file system or environment. Any evaluation problem,
// such as a reference to a missing key, makes the record not match.
package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/tryfunc"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

// Expr is a compiled filter expression.
type Expr struct {
	src  string
	expr hclsyntax.Expression
}

// Compile parses src. Blank input is rejected.
func Compile(src string) (*Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, oerrors.NewValidationError("empty query expression", "", "", "")
	}
	expr, diags := hclsyntax.ParseExpression([]byte(src), "query", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid query expression %q: %s", src, diags.Error()), "", "", "")
	}
	return &Expr{src: src, expr: expr}, nil
}

// String returns the source of the expression.
func (e *Expr) String() string {
	return e.src
}

// Eval evaluates the expression against a record.
func (e *Expr) Eval(record map[string]any) (cty.Value, error) {
	vars, err := Variables(record)
	if err != nil {
		return cty.NilVal, err
	}
	val, diags := e.expr.Value(&hcl.EvalContext{Variables: vars, Functions: functions})
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return val, nil
}

// Match reports whether the record satisfies the expression. Evaluation
// errors and panics count as no match.
func (e *Expr) Match(record map[string]any) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	val, err := e.Eval(record)
	if err != nil {
		return false
	}
	return truthy(val)
}

// Match compiles src and matches it against record. Invalid expressions
// match nothing.
func Match(src string, record map[string]any) bool {
	expr, err := Compile(src)
	if err != nil {
		return false
	}
	return expr.Match(record)
}

// Variables converts a JSON-like record into HCL variables, one per
// top-level key.
func Variables(record map[string]any) (map[string]cty.Value, error) {
	if len(record) == 0 {
		return map[string]cty.Value{}, nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding query variables: %w", err)
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return nil, fmt.Errorf("inferring query variable types: %w", err)
	}
	obj, err := ctyjson.Unmarshal(raw, ty)
	if err != nil {
		return nil, fmt.Errorf("decoding query variables: %w", err)
	}
	return obj.AsValueMap(), nil
}

// truthy applies the usual truthiness rules: false, null, zero, empty
// strings and empty collections are false.
func truthy(v cty.Value) bool {
	if !v.IsKnown() || v.IsNull() {
		return false
	}
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		return v.AsBigFloat().Sign() != 0
	case ty == cty.String:
		return v.AsString() != ""
	case ty.IsListType(), ty.IsSetType(), ty.IsTupleType(), ty.IsMapType():
		return v.LengthInt() > 0
	case ty.IsObjectType():
		return len(ty.AttributeTypes()) > 0
	}
	return false
}

var functions = map[string]function.Function{
	"lower":       stdlib.LowerFunc,
	"upper":       stdlib.UpperFunc,
	"strlen":      stdlib.StrlenFunc,
	"length":      stdlib.LengthFunc,
	"trimspace":   stdlib.TrimSpaceFunc,
	"contains":    containsFunc,
	"strcontains": strContainsFunc,
	"startswith":  stringPredicate(strings.HasPrefix),
	"endswith":    stringPredicate(strings.HasSuffix),
	"matches":     matchesFunc,
	"try":         tryfunc.TryFunc,
	"can":         tryfunc.CanFunc,
}
