package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

func staticDefaults(m map[string]any) DefaultsSource {
	return func() (map[string]any, error) { return m, nil }
}

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func newTestResolver(t *testing.T, projectYAML string, env ...string) (*Resolver, string) {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "pharaoh.yaml")
	if projectYAML != "" {
		require.NoError(t, os.WriteFile(file, []byte(projectYAML), 0o644))
	}
	r, err := Open(Options{
		ProjectFile: file,
		ProjectRoot: dir,
		Defaults: []DefaultsSource{staticDefaults(map[string]any{
			"a":      1,
			"report": map[string]any{"title": "Default", "author": "nobody"},
		})},
		Environ: environ(env...),
		Now:     func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	require.NoError(t, err)
	return r, file
}

func TestLayerPrecedence(t *testing.T) {
	r, file := newTestResolver(t, "a: 2\n", "PHARAOH.A=3")

	v, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	r.opts.Environ = environ()
	require.NoError(t, r.Load(NamespaceEnv))
	v, err = r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	require.NoError(t, os.Remove(file))
	require.NoError(t, r.Load(NamespaceProject))
	v, err = r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestEnvLayer(t *testing.T) {
	tests := []struct {
		name string
		env  []string
		want map[string]any
	}{
		{
			name: "dot and double underscore separators",
			env:  []string{"PHARAOH__PYTEST__FOO.BA___R=abc"},
			want: map[string]any{"pytest": map[string]any{"foo": map[string]any{"ba___r": "abc"}}},
		},
		{
			name: "short prefix and mixed case",
			env:  []string{"Pharao.Report.Title=x"},
			want: map[string]any{"report": map[string]any{"title": "x"}},
		},
		{
			name: "yaml literal values",
			env: []string{
				"PHARAOH.I=123", "PHARAOH.B1=True", "PHARAOH.B2=true",
				"PHARAOH.L=[1,2,3]", "PHARAOH.M={a: 1}", "PHARAOH.S=abc",
			},
			want: map[string]any{
				"i": 123, "b1": true, "b2": true,
				"l": []any{1, 2, 3}, "m": map[string]any{"a": 1}, "s": "abc",
			},
		},
		{
			name: "unrelated variables are ignored",
			env:  []string{"HOME=/root", "PHARAOHX.A=1", "PHARAOH_A=1", "PHARAOH.=1"},
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, envLayer(tt.env))
		})
	}
}

func TestSplitEnvKey(t *testing.T) {
	assert.Equal(t, []string{"PHARAOH", "A", "B_C", "D___E"}, splitEnvKey("PHARAOH__A.B_C__D___E"))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 1.5, ParseValue("1.5"))
	assert.Equal(t, "a: b: c", ParseValue("a: b: c"))
	assert.Nil(t, ParseValue(""))
	assert.Equal(t, "# not a comment value", ParseValue("# not a comment value"))
}

func TestGet(t *testing.T) {
	r, _ := newTestResolver(t, "report:\n  title: Project\n")

	t.Run("case-insensitive dotted key", func(t *testing.T) {
		v, err := r.Get("Report.TITLE")
		require.NoError(t, err)
		assert.Equal(t, "Project", v)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := r.Get("nope.nothing")
		require.Error(t, err)
		assert.ErrorIs(t, err, oerrors.ErrNotFound)
		assert.Contains(t, err.Error(), "nope.nothing")
	})

	t.Run("missing key with default", func(t *testing.T) {
		v, err := r.Get("nope", WithDefault("fallback"))
		require.NoError(t, err)
		assert.Equal(t, "fallback", v)
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := r.Get("  ")
		assert.ErrorIs(t, err, oerrors.ErrValidation)
	})

	t.Run("map values are copies", func(t *testing.T) {
		v, err := r.Get("report")
		require.NoError(t, err)
		v.(map[string]any)["title"] = "mutated"

		title, err := r.GetString("report.title")
		require.NoError(t, err)
		assert.Equal(t, "Project", title)
	})
}

func TestTypedGetters(t *testing.T) {
	r, _ := newTestResolver(t, "n: '4'\nflag: 'yes'\nlist: [a, b]\n", "PHARAOH.FLAG=true")

	n, err := r.GetInt("n")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	b, err := r.GetBool("flag")
	require.NoError(t, err)
	assert.True(t, b)

	l, err := r.GetStringSlice("list")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, l)
}

func TestPutAndSave(t *testing.T) {
	r, file := newTestResolver(t, "", "PHARAOH.REPORT.AUTHOR=env-author")

	require.NoError(t, r.Put("report.title", "Put"))
	require.NoError(t, r.Put("report.author", "put-author"))
	require.NoError(t, r.Put("new.nested.key", []any{1, 2}))

	title, err := r.GetString("report.title")
	require.NoError(t, err)
	assert.Equal(t, "Put", title)

	author, err := r.GetString("report.author")
	require.NoError(t, err)
	assert.Equal(t, "env-author", author, "env namespace wins over put")

	require.NoError(t, r.Save(false))
	reloaded, err := ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"report": map[string]any{"title": "Put", "author": "put-author"},
		"new":    map[string]any{"nested": map[string]any{"key": []any{1, 2}}},
	}, reloaded)

	require.NoError(t, r.Save(true))
	reloaded, err = ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "env-author", reloaded["report"].(map[string]any)["author"])

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Pharaoh project settings.")
}

func TestDefaultsConflict(t *testing.T) {
	_, err := Open(Options{
		Defaults: []DefaultsSource{
			staticDefaults(map[string]any{"a": map[string]any{"b": 1}, "same": "x"}),
			staticDefaults(map[string]any{"a": map[string]any{"b": 2}, "same": "x"}),
		},
		Environ: environ(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrConflict)
	assert.Contains(t, err.Error(), "a.b")
}

func TestInterpolation(t *testing.T) {
	r, file := newTestResolver(t, `
report:
  author: Jane
  title: "Report by ${report.author}"
count: 3
copy: ${count}
stamp: ${utcnow.strf:%Y-%m-%d}
default_stamp: ${utcnow.strf:}
root: ${pharaoh.project_dir:}
escaped: \${report.author}
cycle_a: ${cycle_b}
cycle_b: ${cycle_a}
dangling: ${does.not.exist}
`)

	tests := []struct {
		key  string
		want any
	}{
		{"report.title", "Report by Jane"},
		{"copy", 3},
		{"stamp", "2024-01-02"},
		{"default_stamp", "20240102_030405"},
		{"root", filepath.Dir(file)},
		{"escaped", "${report.author}"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, err := r.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	t.Run("raw", func(t *testing.T) {
		v, err := r.Get("report.title", Raw())
		require.NoError(t, err)
		assert.Equal(t, "Report by ${report.author}", v)
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := r.Get("cycle_a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("dangling reference", func(t *testing.T) {
		_, err := r.Get("dangling")
		assert.ErrorIs(t, err, oerrors.ErrNotFound)
	})

	t.Run("user resolver", func(t *testing.T) {
		require.NoError(t, r.Put("who", "${user:}"))
		v, err := r.GetString("who")
		require.NoError(t, err)
		assert.NotEmpty(t, v)
	})

	t.Run("custom resolver", func(t *testing.T) {
		r.RegisterResolver("upper", func(_ *Resolver, args []string) (any, error) {
			return "UP-" + args[0], nil
		})
		require.NoError(t, r.Put("shout", "${upper:x}"))
		v, err := r.Get("shout")
		require.NoError(t, err)
		assert.Equal(t, "UP-x", v)
	})

	t.Run("unknown resolver", func(t *testing.T) {
		require.NoError(t, r.Put("bad", "${nope:x}"))
		_, err := r.Get("bad")
		assert.ErrorIs(t, err, oerrors.ErrNotFound)
	})
}

func TestBuiltinResolvers(t *testing.T) {
	t.Setenv("ONLY_IN_PROCESS_ENV", "leaked")
	r, _ := newTestResolver(t, "", "REPORT_OWNER=ops", "USER=alice", "EMPTY=")

	tests := []struct {
		name    string
		value   string
		want    any
		wantErr error
	}{
		{"env from injected environment", "${env:REPORT_OWNER}", "ops", nil},
		{"env empty value", "${env:EMPTY,fallback}", "", nil},
		{"env default", "${env:MISSING, a,b}", "a,b", nil},
		{"env ignores process environment", "${env:ONLY_IN_PROCESS_ENV,unset}", "unset", nil},
		{"env missing", "${env:ONLY_IN_PROCESS_ENV}", nil, oerrors.ErrNotFound},
		{"strftime keeps spaces after commas", "${utcnow.strf:%d, %b}", "02, Jan", nil},
		{"strftime keeps commas", "${utcnow.strf:%Y,%m}", "2024,01", nil},
		{"strftime spaces before commas", "${utcnow.strf:%H ,%M}", "03 ,04", nil},
		{"strftime default layout", "${utcnow.strf:}", "20240102_030405", nil},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := fmt.Sprintf("resolved_%d", i)
			require.NoError(t, r.Put(key, tt.value))
			v, err := r.Get(key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestEffective(t *testing.T) {
	r, _ := newTestResolver(t, "report:\n  title: ${report.author}\n")

	raw, err := r.Effective(false)
	require.NoError(t, err)
	assert.Equal(t, "${report.author}", raw["report"].(map[string]any)["title"])

	resolved, err := r.Effective(true)
	require.NoError(t, err)
	assert.Equal(t, "nobody", resolved["report"].(map[string]any)["title"])
}

func TestExplain(t *testing.T) {
	r, _ := newTestResolver(t, "a: 2\n", "PHARAOH.A=3")

	rv, err := r.Explain("a")
	require.NoError(t, err)
	assert.Equal(t, 3, rv.Value)
	assert.Equal(t, NamespaceEnv, rv.Source)
	assert.Equal(t, map[Namespace]any{NamespaceProject: 2, NamespaceDefault: 1}, rv.Shadowed)

	rv, err = r.Explain("report.author")
	require.NoError(t, err)
	assert.Equal(t, NamespaceDefault, rv.Source)
	assert.Empty(t, rv.Shadowed)

	_, err = r.Explain("missing")
	assert.ErrorIs(t, err, oerrors.ErrNotFound)
}

func TestLoadUnknownNamespace(t *testing.T) {
	r := NewResolver(Options{Environ: environ()})
	err := r.Load(Namespace("bogus"))
	assert.ErrorIs(t, err, oerrors.ErrValidation)
}

func TestInvalidProjectFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pharaoh.yaml")
	require.NoError(t, os.WriteFile(file, []byte("a: [unclosed\n"), 0o644))

	_, err := Open(Options{ProjectFile: file, Environ: environ()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"~", home},
		{"~/reports", filepath.Join(home, "reports")},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
