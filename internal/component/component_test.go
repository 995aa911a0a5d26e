package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

func TestFromSettings(t *testing.T) {
	raw := []any{
		map[string]any{
			"name":           "overview",
			"templates":      []any{"pharaoh.empty"},
			"render_context": map[string]any{"title": "Overview"},
			"resources":      []any{map[string]any{"alias": "data", "type": "file", "pattern": "*.csv"}},
			"metadata":       map[string]any{"tier": 1},
		},
		map[string]any{"name": "bare"},
	}

	got, err := FromSettings(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "overview", got[0].Name)
	assert.Equal(t, []string{"pharaoh.empty"}, got[0].Templates)
	assert.Equal(t, "Overview", got[0].RenderContext["title"])
	res, ok := got[0].Resource("data")
	require.True(t, ok)
	assert.Equal(t, "*.csv", res["pattern"])
	_, ok = got[0].Resource("nope")
	assert.False(t, ok)

	assert.NotNil(t, got[1].Metadata)
	assert.NotNil(t, got[1].RenderContext)

	back, err := FromSettings(ToSettings(got))
	require.NoError(t, err)
	assert.Equal(t, got, back)
}

func TestFromSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"not a list", map[string]any{}},
		{"not a mapping", []any{"overview"}},
		{"missing name", []any{map[string]any{"templates": []any{}}}},
		{"bad field type", []any{map[string]any{"name": "x", "templates": "pharaoh.empty"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSettings(tt.in)
			assert.ErrorIs(t, err, oerrors.ErrValidation)
		})
	}

	none, err := FromSettings(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRenderData(t *testing.T) {
	c := Component{
		Name:          "overview",
		RenderContext: map[string]any{"title": "Overview"},
		Metadata:      map[string]any{"tier": 1},
	}
	data, err := c.RenderData()
	require.NoError(t, err)
	assert.Equal(t, "overview", data["component_name"])
	assert.Equal(t, "Overview", data["title"])
	assert.Equal(t, map[string]any{"tier": 1}, data["metadata"])

	c.RenderContext["metadata"] = "clash"
	_, err = c.RenderData()
	assert.ErrorIs(t, err, oerrors.ErrValidation)
}
