package component

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/project"
)

func TestComponentCmd(t *testing.T) {
	p, err := project.New(filepath.Join(t.TempDir(), "report"), project.Options{})
	require.NoError(t, err)
	cfg := &cmdtypes.GlobalConfig{ProjectFlag: p.Root()}

	run := func(args ...string) string {
		t.Helper()
		c := NewComponentCmd(cfg)
		var out bytes.Buffer
		c.SetOut(&out)
		c.SetErr(&bytes.Buffer{})
		c.SetArgs(args)
		require.NoError(t, c.Execute())
		return out.String()
	}

	assert.Contains(t, run("list"), "No components found")

	_, err = p.AddComponent("plots", project.ComponentOptions{Metadata: map[string]any{"kind": "figure"}})
	require.NoError(t, err)
	_, err = p.AddComponent("tables", project.ComponentOptions{Metadata: map[string]any{"kind": "table"}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"list", []string{"list"}, []string{"plots", "tables", "kind=figure"}, nil},
		{"find", []string{"find", `metadata.kind == "table"`}, []string{"tables"}, []string{"plots"}},
		{"find yaml", []string{"find", `name == "plots"`, "-o", "yaml"}, []string{"name: plots"}, []string{"tables"}},
		{"invalid expression", []string{"find", "(("}, []string{"No components found"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(tt.args...)
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}
}
