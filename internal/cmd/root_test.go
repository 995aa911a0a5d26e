package cmd

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(&cmdtypes.GlobalConfig{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// newTestProject creates a project and returns its root.
func newTestProject(t *testing.T) string {
	t.Helper()
	t.Setenv("PHARAOH_PROJECT", "")
	dir := filepath.Join(t.TempDir(), "report")
	_, err := execute(t, "new", "-p", dir)
	require.NoError(t, err)
	return dir
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *oerrors.ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
	return exitErr.Code
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{
		"new", "add", "add-template", "update-resource", "remove", "env",
		"generate", "build", "archive", "info", "version",
		"component", "settings", "asset",
	}
	for _, name := range want {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
		assert.NotEmpty(t, c.Short, name)
	}

	projectFlag := root.PersistentFlags().Lookup("project")
	require.NotNil(t, projectFlag)
	assert.Equal(t, "p", projectFlag.Shorthand)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pharaoh version")
	assert.Contains(t, out, "CUE SDK")
}

func TestInfoCmd(t *testing.T) {
	out, err := execute(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Pharaoh ")
	assert.Contains(t, out, "pharaoh.default_project")
	assert.Contains(t, out, "pharaoh.empty")
	assert.Contains(t, out, "image")
	assert.Contains(t, out, ".png")
	assert.Contains(t, out, "file")
}

func TestNewCmd(t *testing.T) {
	dir := newTestProject(t)

	_, err := os.Stat(filepath.Join(dir, "pharaoh.yaml"))
	require.NoError(t, err)

	// reopening an existing project is fine
	out, err := execute(t, "new", "-p", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "pharaoh.yaml")
}

func TestNewCmd_NonEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o644))

	_, err := execute(t, "new", "-p", dir)
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitInconsistentProject, exitCode(t, err))

	_, err = execute(t, "new", "-p", dir, "--force")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "stray.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewCmd_CustomSettings(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("report:\n  title: Custom\n"), 0o644))
	dir := filepath.Join(t.TempDir(), "report")

	_, err := execute(t, "new", "-p", dir, "-s", custom)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "pharaoh.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Custom")
}

func TestNewCmd_InvalidContext(t *testing.T) {
	_, err := execute(t, "new", "-p", filepath.Join(t.TempDir(), "x"), "-c", "[1, 2]")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitValidationError, exitCode(t, err))
}

func TestCommandOutsideProject(t *testing.T) {
	t.Setenv("PHARAOH_PROJECT", "")
	t.Chdir(t.TempDir())

	_, err := execute(t, "build")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitNotFound, exitCode(t, err))
}

func TestProjectFromEnvironment(t *testing.T) {
	dir := newTestProject(t)
	t.Setenv("PHARAOH_PROJECT", dir)

	_, err := execute(t, "env", "report.title", "From env")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "pharaoh.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "From env")
}
