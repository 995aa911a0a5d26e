package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/project"
)

func componentNames(t *testing.T, dir string) []string {
	t.Helper()
	out, err := execute(t, "-p", dir, "component", "list", "-o", "json")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	names := make([]string, 0, len(list))
	for _, c := range list {
		names = append(names, c["name"].(string))
	}
	return names
}

func TestAddCmd(t *testing.T) {
	dir := newTestProject(t)

	out, err := execute(t, "-p", dir, "add", "intro", "-m", "{team: a}")
	require.NoError(t, err)
	assert.Contains(t, out, "Added component")
	assert.DirExists(t, filepath.Join(dir, project.ReportProjectDir, "components", "intro"))

	_, err = execute(t, "-p", dir, "add", "first", "-i", "0")
	require.NoError(t, err)
	_, err = execute(t, "-p", dir, "add", "last")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "intro", "last"}, componentNames(t, dir))

	out, err = execute(t, "-p", dir, "component", "find", `metadata.team == "a"`)
	require.NoError(t, err)
	assert.Contains(t, out, "intro")
	assert.NotContains(t, out, "first")
}

func TestAddCmd_Errors(t *testing.T) {
	dir := newTestProject(t)
	_, err := execute(t, "-p", dir, "add", "intro")
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"duplicate", []string{"add", "intro"}, oerrors.ExitValidationError},
		{"invalid name", []string{"add", "has space"}, oerrors.ExitValidationError},
		{"bad metadata", []string{"add", "other", "-m", "[1]"}, oerrors.ExitValidationError},
		{"bad resource", []string{"add", "other", "-r", "{type: file, alias: raw}"}, oerrors.ExitValidationError},
		{"unknown template", []string{"add", "other", "-t", "pharaoh.nope"}, oerrors.ExitNotFound},
		{"missing args", []string{"add"}, oerrors.ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"-p", dir}, tt.args...)...)
			require.Error(t, err)
			if tt.code == oerrors.ExitGeneralError {
				assert.Equal(t, tt.code, oerrors.ExitCodeFromError(err))
				return
			}
			assert.Equal(t, tt.code, exitCode(t, err))
		})
	}
}

func TestAddCmd_Overwrite(t *testing.T) {
	dir := newTestProject(t)
	_, err := execute(t, "-p", dir, "add", "intro", "-m", "{kind: old}")
	require.NoError(t, err)
	_, err = execute(t, "-p", dir, "add", "intro", "-m", "{kind: new}", "--overwrite")
	require.NoError(t, err)

	out, err := execute(t, "-p", dir, "component", "find", `metadata.kind == "new"`, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"intro"`)
	assert.Equal(t, []string{"intro"}, componentNames(t, dir))
}

func TestUpdateResourceCmd(t *testing.T) {
	dir := newTestProject(t)
	_, err := execute(t, "-p", dir, "add", "intro", "-r", "{type: file, alias: raw, pattern: 'data/*.csv'}")
	require.NoError(t, err)

	_, err = execute(t, "-p", dir, "update-resource", "intro", "-r", "{type: file, alias: raw, pattern: 'data/*.json'}")
	require.NoError(t, err)
	_, err = execute(t, "-p", dir, "update-resource", "intro", "-r", "{type: file, alias: extra, pattern: '*.txt'}")
	require.NoError(t, err)

	out, err := execute(t, "-p", dir, "component", "list", "-o", "json")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	resources := list[0]["resources"].([]any)
	require.Len(t, resources, 2)
	assert.Equal(t, "data/*.json", resources[0].(map[string]any)["pattern"])

	_, err = execute(t, "-p", dir, "update-resource", "missing", "-r", "{type: file, alias: raw, pattern: x}")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitNotFound, exitCode(t, err))
}

func TestRemoveCmd(t *testing.T) {
	dir := newTestProject(t)
	for _, name := range []string{"plots_a", "plots_b", "tables"} {
		_, err := execute(t, "-p", dir, "add", name)
		require.NoError(t, err)
	}

	out, err := execute(t, "-p", dir, "remove", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No components matched")

	out, err = execute(t, "-p", dir, "remove", "^plots_.$", "--regex")
	require.NoError(t, err)
	assert.Contains(t, out, "plots_a, plots_b")
	assert.Equal(t, []string{"tables"}, componentNames(t, dir))
	assert.NoDirExists(t, filepath.Join(dir, project.ReportProjectDir, "components", "plots_a"))

	_, err = execute(t, "-p", dir, "remove", "(", "--regex")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitValidationError, exitCode(t, err))
}

func TestEnvCmd(t *testing.T) {
	dir := newTestProject(t)

	out, err := execute(t, "-p", dir, "env", "report.title", "Quarterly")
	require.NoError(t, err)
	assert.Contains(t, out, "report.title = Quarterly")

	_, err = execute(t, "-p", dir, "env", "asset_gen.worker_processes", "3")
	require.NoError(t, err)

	out, err = execute(t, "-p", dir, "settings", "get", "asset_gen.worker_processes")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	out, err = execute(t, "-p", dir, "settings", "get", "report.title")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly\n", out)
}
