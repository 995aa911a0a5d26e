package cmd

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/generate"
	"github.com/pharaoh-reports/pharaoh/internal/project"
)

func writeScript(t *testing.T, dir, comp, name, body string) {
	t.Helper()
	scripts := filepath.Join(dir, project.ReportProjectDir, "components", comp, generate.ScriptsDir)
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, name), []byte(body), 0o644))
}

// projectWithGreeting returns a project whose intro component has a script
// registering a text asset through the asset manifest.
func projectWithGreeting(t *testing.T) string {
	t.Helper()
	dir := newTestProject(t)
	_, err := execute(t, "-p", dir, "add", "intro")
	require.NoError(t, err)
	writeScript(t, dir, "intro", "greet.sh", `printf 'hello from intro' > greeting.txt
printf '{"file":"greeting.txt","metadata":{"label":"greeting"}}\n' >> "$PHARAOH_ASSET_MANIFEST"
`)
	return dir
}

func TestGenerateCmd(t *testing.T) {
	requireShell(t)
	dir := projectWithGreeting(t)

	out, err := execute(t, "-p", dir, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "greet.sh")
	assert.Contains(t, out, "Generated assets (1 units)")

	out, err = execute(t, "-p", dir, "asset", "search", `label == "greeting"`, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"component": "intro"`)
	assert.Contains(t, out, "greeting")

	out, err = execute(t, "-p", dir, "asset", "list", "--component", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "No assets found")
}

func TestGenerateCmd_Filters(t *testing.T) {
	requireShell(t)
	dir := projectWithGreeting(t)

	out, err := execute(t, "-p", dir, "generate", "-f", "outro")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated assets (0 units)")

	_, err = execute(t, "-p", dir, "generate", "-f", "(")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitValidationError, exitCode(t, err))
}

func TestGenerateCmd_FailingScript(t *testing.T) {
	requireShell(t)
	dir := projectWithGreeting(t)
	writeScript(t, dir, "intro", "broken.sh", "echo kaputt >&2\nexit 4\n")

	out, err := execute(t, "-p", dir, "generate")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitGenerationFailed, exitCode(t, err))
	assert.Contains(t, out, "broken.sh")
	assert.Contains(t, out, "greet.sh")
}

func TestBuildCmd(t *testing.T) {
	requireShell(t)
	dir := projectWithGreeting(t)
	_, err := execute(t, "-p", dir, "generate")
	require.NoError(t, err)

	out, err := execute(t, "-p", dir, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Report built in")

	page, err := os.ReadFile(filepath.Join(dir, project.ReportBuildDir, "components", "intro", "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "hello from intro")
}

func TestBuildCmd_BuilderFails(t *testing.T) {
	requireShell(t)
	dir := newTestProject(t)
	_, err := execute(t, "-p", dir, "env", "report.builder_command", "[sh, -c, 'exit 3']")
	require.NoError(t, err)

	_, err = execute(t, "-p", dir, "build")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitBuildFailed, exitCode(t, err))
}

func TestBuildCmd_MissingTemplateDependency(t *testing.T) {
	dir := newTestProject(t)
	_, err := execute(t, "-p", dir, "add", "info", "-t", "pharaoh.report_info")
	require.NoError(t, err)

	_, err = execute(t, "-p", dir, "build")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitInconsistentProject, exitCode(t, err))
}

func TestArchiveCmd(t *testing.T) {
	dir := newTestProject(t)

	_, err := execute(t, "-p", dir, "archive")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitNotFound, exitCode(t, err))

	_, err = execute(t, "-p", dir, "build")
	require.NoError(t, err)

	out, err := execute(t, "-p", dir, "archive", "-d", "out/report.zip")
	require.NoError(t, err)
	path := filepath.Join(dir, "out", "report.zip")
	assert.Contains(t, out, path)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var entries []string
	for _, f := range zr.File {
		entries = append(entries, f.Name)
	}
	assert.Contains(t, entries, "index.md")

	_, err = execute(t, "-p", dir, "archive", "-d", "report.tar")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitValidationError, exitCode(t, err))
}
