package resource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

var factories = map[string]Factory{"file": NewFile}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		spec     map[string]any
		sentinel error
	}{
		{"no type", map[string]any{"alias": "a"}, oerrors.ErrValidation},
		{"unknown type", map[string]any{"alias": "a", "type": "s3"}, oerrors.ErrNotFound},
		{"missing alias", map[string]any{"type": "file", "pattern": "*.csv"}, oerrors.ErrValidation},
		{"missing pattern", map[string]any{"type": "file", "alias": "a"}, oerrors.ErrValidation},
		{"bad pattern", map[string]any{"type": "file", "alias": "a", "pattern": "[x"}, oerrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec, factories)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestFileResource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	for _, name := range []string{"b.csv", "a.csv", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "data", name), nil, 0o644))
	}

	spec := map[string]any{"alias": "measurements", "type": "file", "pattern": "data/*.csv"}
	res, err := New(spec, factories)
	require.NoError(t, err)
	assert.Equal(t, "measurements", res.Alias())
	assert.Equal(t, "file", res.Type())
	assert.Equal(t, spec, res.Spec())

	files, err := res.Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "data", "a.csv"),
		filepath.Join(root, "data", "b.csv"),
	}, files)

	empty, err := NewFile(map[string]any{"alias": "none", "pattern": "nothing/*"})
	require.NoError(t, err)
	files, err = empty.Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{}, files)
}
