package asset

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/metadata"
)

const buildDir = "/project/report-project/.asset_build"

type fakeTemplates map[string]string

func (f fakeTemplates) TemplateForSuffix(suffix string) (string, error) {
	name, ok := f[suffix]
	if !ok {
		return "", oerrors.NewNotFoundError("no mapping for "+suffix, "", "")
	}
	return name, nil
}

func (f fakeTemplates) HasAssetTemplate(name string) bool {
	for _, v := range f {
		if v == name {
			return true
		}
	}
	return name == "raw_txt"
}

var coreMapping = fakeTemplates{
	".png":  "image",
	".html": "iframe",
	".md":   "markdown",
	".csv":  "datatable",
	".json": "raw_txt",
}

func newRegistrar(t *testing.T, component string) (*Registrar, afero.Fs, *metadata.Stack) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	stack := metadata.New()
	stack.Push(FrameGenerate, map[string]any{
		"asset": map[string]any{
			"script_name":    "plots.py",
			"script_path":    "components/" + component + "/asset_scripts/plots.py",
			"component_name": component,
			"index":          0,
		},
	})
	return &Registrar{
		BuildDir:  buildDir,
		Component: component,
		Stack:     stack,
		Templates: coreMapping,
		FS:        fsys,
	}, fsys, stack
}

func TestRegisterData(t *testing.T) {
	r, fsys, stack := newRegistrar(t, "overview")

	a, err := r.Register("plot.png", RegisterOptions{
		Data:     []byte("PNG"),
		Metadata: map[string]any{"label": "main", "asset": "dropped", "context_name": "dropped"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.ID, "__ID__"))
	assert.Equal(t, filepath.Join(buildDir, "overview"), filepath.Dir(a.AssetFile))
	assert.Regexp(t, `^plot_[0-9a-f]{8}\.png$`, a.Name())
	assert.Equal(t, "image", a.Template())
	assert.False(t, a.Copy2Build())
	assert.Equal(t, 1, a.Index())
	assert.Equal(t, "overview", a.Component())

	label, ok := a.Lookup("label")
	require.True(t, ok)
	assert.Equal(t, "main", label)
	_, ok = a.Lookup("context_name")
	assert.False(t, ok)
	script, _ := a.Lookup("asset.script_name")
	assert.Equal(t, "plots.py", script)
	user, _ := a.Lookup("asset.user_filepath")
	assert.Equal(t, "plot.png", user)

	content, err := afero.ReadFile(fsys, a.AssetFile)
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(content))

	assert.Equal(t, 1, stack.Len(), "registration frame must be removed")
}

func TestRegisterIncrementsIndex(t *testing.T) {
	r, _, _ := newRegistrar(t, "overview")

	for want := 1; want <= 3; want++ {
		a, err := r.Register("note.md", RegisterOptions{Data: []byte("# hi")})
		require.NoError(t, err)
		assert.Equal(t, want, a.Index())
	}
}

func TestRegisterWithoutGenerateFrame(t *testing.T) {
	r, _, _ := newRegistrar(t, "overview")
	r.Stack = nil

	a, err := r.Register("note.md", RegisterOptions{Data: []byte("# hi")})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Index())
}

func TestRegisterCopiesFilesAndDirectories(t *testing.T) {
	r, fsys, _ := newRegistrar(t, "overview")
	require.NoError(t, afero.WriteFile(fsys, "/tmp/out/table.csv", []byte("a,b\n1,2\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/tmp/out/site/index.html", []byte("<p/>"), 0o644))

	a, err := r.Register("/tmp/out/table.csv", RegisterOptions{})
	require.NoError(t, err)
	table, err := a.ReadTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Header)
	assert.Equal(t, [][]string{{"1", "2"}}, table.Rows)

	d, err := r.Register("/tmp/out/site", RegisterOptions{Template: "iframe"})
	require.NoError(t, err)
	assert.True(t, d.Copy2Build())
	ok, err := afero.Exists(fsys, filepath.Join(d.AssetFile, "index.html"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterIframeForcesCopy2Build(t *testing.T) {
	r, _, _ := newRegistrar(t, "overview")

	a, err := r.Register("plot.html", RegisterOptions{Data: []byte("<html/>")})
	require.NoError(t, err)
	assert.Equal(t, "iframe", a.Template())
	assert.True(t, a.Copy2Build())
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		opts     RegisterOptions
		sentinel error
	}{
		{"unmapped extension", "data.xyz", RegisterOptions{Data: []byte("x")}, oerrors.ErrNotFound},
		{"unknown template", "plot.png", RegisterOptions{Template: "nope", Data: []byte("x")}, oerrors.ErrNotFound},
		{"missing source", "/does/not/exist.png", RegisterOptions{}, fs.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, stack := newRegistrar(t, "overview")
			_, err := r.Register(tt.src, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, 1, stack.Len())
		})
	}
}

func TestRegisterRequiresComponent(t *testing.T) {
	r, _, _ := newRegistrar(t, "")
	_, err := r.Register("plot.png", RegisterOptions{Data: []byte("x")})
	assert.ErrorIs(t, err, oerrors.ErrValidation)
}

func TestRegisterFromContext(t *testing.T) {
	a, err := Register(context.Background(), "plot.png", RegisterOptions{Data: []byte("x")})
	require.NoError(t, err)
	assert.Nil(t, a)

	r, _, _ := newRegistrar(t, "overview")
	a, err = Register(WithRegistrar(context.Background(), r), "plot.png", RegisterOptions{Data: []byte("x")})
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "image", a.Template())
}

func TestRegisterTemplatingContext(t *testing.T) {
	r, _, _ := newRegistrar(t, "overview")

	_, err := r.RegisterTemplatingContext("", map[string]any{"a": 1}, nil)
	assert.ErrorIs(t, err, oerrors.ErrValidation)

	_, err = r.RegisterTemplatingContext("ctx", "data.txt", nil)
	assert.ErrorIs(t, err, oerrors.ErrValidation)

	a, err := r.RegisterTemplatingContext("kpis", map[string]any{"uptime": 99.5}, map[string]any{"team": "ops"})
	require.NoError(t, err)
	name, _ := a.Lookup(TemplatingContextKey)
	assert.Equal(t, "kpis", name)
	team, _ := a.Lookup("team")
	assert.Equal(t, "ops", team)

	var data map[string]any
	require.NoError(t, a.ReadJSON(&data))
	assert.Equal(t, 99.5, data["uptime"])
}

func TestLoadBrokenLink(t *testing.T) {
	fsys := afero.NewMemMapFs()
	info := filepath.Join(buildDir, "c", "plot_1234abcd.assetinfo")
	require.NoError(t, afero.WriteFile(fsys, info, []byte(`{"asset":{}}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(buildDir, "c", "plot_1234abcdX.png"), []byte("x"), 0o644))

	_, err := LoadFS(fsys, info)
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrAssetFileLinkBroken)
	assert.Contains(t, err.Error(), info)
}

func TestLoadRejectsOtherFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/b/c/x.json", []byte(`{}`), 0o644))
	_, err := LoadFS(fsys, "/b/c/x.json")
	assert.ErrorIs(t, err, oerrors.ErrValidation)
}

func TestAssetIDIsStable(t *testing.T) {
	r, fsys, _ := newRegistrar(t, "overview")
	a, err := r.Register("plot.png", RegisterOptions{Data: []byte("x")})
	require.NoError(t, err)

	again, err := LoadFS(fsys, a.InfoFile)
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)
	assert.Equal(t, a.AssetFile, again.AssetFile)
}

func TestCopyTo(t *testing.T) {
	r, fsys, _ := newRegistrar(t, "overview")
	a, err := r.Register("plot.png", RegisterOptions{Data: []byte("PNG")})
	require.NoError(t, err)

	target, err := a.CopyTo("/project/report-build/overview")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/project/report-build/overview", a.Name()), target)
	content, err := afero.ReadFile(fsys, target)
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(content))

	require.NoError(t, afero.WriteFile(fsys, target, []byte("changed"), 0o644))
	again, err := a.CopyTo("/project/report-build/overview")
	require.NoError(t, err)
	assert.Equal(t, target, again)
	content, _ = afero.ReadFile(fsys, target)
	assert.Equal(t, "changed", string(content), "second copy is a no-op")
}

func TestReadSuffixChecks(t *testing.T) {
	r, _, _ := newRegistrar(t, "overview")
	a, err := r.Register("note.md", RegisterOptions{Data: []byte("# hi")})
	require.NoError(t, err)

	var v any
	assert.ErrorIs(t, a.ReadJSON(&v), oerrors.ErrValidation)
	assert.ErrorIs(t, a.ReadYAML(&v), oerrors.ErrValidation)
	_, err = a.ReadTable()
	assert.ErrorIs(t, err, oerrors.ErrValidation)

	text, err := a.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "# hi", text)
}

func TestRegisterErrorKeepsMissingSourceDistinct(t *testing.T) {
	r, _, _ := newRegistrar(t, "overview")
	_, err := r.Register("/nowhere/plot.png", RegisterOptions{})
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, oerrors.ErrNotFound))
}
