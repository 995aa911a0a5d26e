package query

import (
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

func stringPredicate(pred func(s, arg string) bool) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "str", Type: cty.String},
			{Name: "arg", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return cty.BoolVal(pred(args[0].AsString(), args[1].AsString())), nil
		},
	})
}

var strContainsFunc = stringPredicate(strings.Contains)

// containsFunc tests substrings of strings, elements of lists and tuples
// and keys of objects and maps.
var containsFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "haystack", Type: cty.DynamicPseudoType},
		{Name: "needle", Type: cty.DynamicPseudoType},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		haystack, needle := args[0], args[1]
		if !haystack.IsKnown() || !needle.IsKnown() {
			return cty.False, nil
		}
		ty := haystack.Type()
		switch {
		case ty == cty.String:
			if needle.Type() != cty.String {
				return cty.False, nil
			}
			return cty.BoolVal(strings.Contains(haystack.AsString(), needle.AsString())), nil
		case ty.IsListType(), ty.IsTupleType(), ty.IsSetType():
			for it := haystack.ElementIterator(); it.Next(); {
				_, v := it.Element()
				if !v.Type().Equals(needle.Type()) {
					continue
				}
				if eq := v.Equals(needle); eq.IsKnown() && eq.True() {
					return cty.True, nil
				}
			}
			return cty.False, nil
		case ty.IsObjectType():
			if needle.Type() != cty.String {
				return cty.False, nil
			}
			return cty.BoolVal(ty.HasAttribute(needle.AsString())), nil
		case ty.IsMapType():
			if needle.Type() != cty.String {
				return cty.False, nil
			}
			return haystack.HasIndex(needle), nil
		}
		return cty.False, nil
	},
})

var matchesFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "str", Type: cty.String},
		{Name: "pattern", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		re, err := regexp.Compile(args[1].AsString())
		if err != nil {
			return cty.False, function.NewArgError(1, err)
		}
		return cty.BoolVal(re.MatchString(args[0].AsString())), nil
	},
})
