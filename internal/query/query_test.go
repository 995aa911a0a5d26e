package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

func record() map[string]any {
	return map[string]any{
		"component_name": "overview",
		"tags":           []any{"summary", "plot"},
		"asset": map[string]any{
			"name":     "plot_overview",
			"index":    3,
			"template": "image",
			"hidden":   false,
		},
		"label":  "",
		"nested": map[string]any{},
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{"", "   ", "asset.index >", "a = 1"} {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			require.Error(t, err)
			assert.ErrorIs(t, err, oerrors.ErrValidation)
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"literal true", "true", true},
		{"literal false", "false", false},
		{"equality", `component_name == "overview"`, true},
		{"inequality", `component_name != "overview"`, false},
		{"nested attribute", `asset.template == "image"`, true},
		{"number comparison", "asset.index > 2", true},
		{"number comparison false", "asset.index >= 4", false},
		{"and", `asset.index == 3 && asset.template == "image"`, true},
		{"or", `asset.index == 1 || component_name == "overview"`, true},
		{"not", "!asset.hidden", true},
		{"startswith", `startswith(asset.name, "plot")`, true},
		{"endswith", `endswith(asset.name, "plot")`, false},
		{"strcontains", `strcontains(asset.name, "over")`, true},
		{"contains list", `contains(tags, "summary")`, true},
		{"contains list miss", `contains(tags, "table")`, false},
		{"contains key", `contains(asset, "index")`, true},
		{"contains string", `contains(component_name, "view")`, true},
		{"matches", `matches(asset.name, "^plot_[a-z]+$")`, true},
		{"lower", `lower("OVERVIEW") == component_name`, true},
		{"length", "length(tags) == 2", true},
		{"missing key is no match", `missing == "x"`, false},
		{"missing nested key is no match", `asset.missing == "x"`, false},
		{"can on missing key", "!can(asset.missing)", true},
		{"try default", `try(asset.missing, "fallback") == "fallback"`, true},
		{"truthy string", "component_name", true},
		{"empty string", "label", false},
		{"truthy number", "asset.index", true},
		{"zero", "0", false},
		{"non-empty list", "tags", true},
		{"empty object", "nested", false},
		{"null", "null", false},
		{"type error is no match", `asset.index + "x"`, false},
		{"bad regexp is no match", `matches(asset.name, "(")`, false},
		{"syntax error is no match", "asset.index >", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.src, record()))
		})
	}
}

func TestExprReuse(t *testing.T) {
	expr, err := Compile("asset.index > 1")
	require.NoError(t, err)
	assert.Equal(t, "asset.index > 1", expr.String())

	assert.True(t, expr.Match(map[string]any{"asset": map[string]any{"index": 2}}))
	assert.False(t, expr.Match(map[string]any{"asset": map[string]any{"index": 1}}))
	assert.False(t, expr.Match(nil))
}

func TestVariables(t *testing.T) {
	vars, err := Variables(record())
	require.NoError(t, err)
	assert.Contains(t, vars, "asset")
	assert.Contains(t, vars, "tags")
	assert.Equal(t, "overview", vars["component_name"].AsString())

	empty, err := Variables(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
