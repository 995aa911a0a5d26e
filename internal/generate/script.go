package generate

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/pharaoh-reports/pharaoh/internal/asset"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// Environment variables passed to asset scripts.
const (
	EnvProjectRoot = "PHARAOH_PROJECT_ROOT"
	EnvComponent   = "PHARAOH_COMPONENT"
	EnvManifest    = "PHARAOH_ASSET_MANIFEST"
	EnvResources   = "PHARAOH_RESOURCES"
)

// ScriptsDir is the directory inside a component holding asset scripts.
const ScriptsDir = "asset_scripts"

var ignoreMarker = regexp.MustCompile(`(?i)^\s*(#|//|--|%|;)\s*pharaoh?\s*:\s*ignore\s*$`)

// ScriptConfig is shared by all scripts of one generation run.
type ScriptConfig struct {
	ProjectRoot string

	// Interpreters maps a lower-case extension without the dot to argv.
	Interpreters map[string][]string

	// IgnorePattern matches script file names that are never executed.
	IgnorePattern *regexp.Regexp

	// Timeout bounds a single script run; 0 disables it.
	Timeout time.Duration
}

// ScriptUnit runs an asset script in a child process.
type ScriptUnit struct {
	Path          string
	ComponentName string
	Interpreter   []string
	Config        ScriptConfig

	// Resources is passed to the script as JSON in PHARAOH_RESOURCES.
	Resources map[string]any
}

// Source returns the script path relative to the project root.
func (u *ScriptUnit) Source() string {
	if rel, err := filepath.Rel(u.Config.ProjectRoot, u.Path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(u.Path)
}

// Component implements Unit.
func (u *ScriptUnit) Component() string { return u.ComponentName }

// Ignored reports whether the script opted out of generation, either by
// name or with a "pharaoh: ignore" comment on its first line.
func (u *ScriptUnit) Ignored() (bool, error) {
	if u.Config.IgnorePattern != nil && u.Config.IgnorePattern.MatchString(filepath.Base(u.Path)) {
		return true, nil
	}
	f, err := os.Open(u.Path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if sc.Scan() {
		return ignoreMarker.MatchString(sc.Text()), nil
	}
	return false, sc.Err()
}

// Run executes the script and registers every asset it listed in the
// manifest. Entries queued before a failure are still registered and the
// failure is returned alongside any registration error.
func (u *ScriptUnit) Run(ctx context.Context) error {
	logger := Logger(ctx)

	ignored, err := u.Ignored()
	if err != nil {
		return err
	}
	if ignored {
		logger.Info("Ignoring file", "script", u.Source())
		return ErrSkipped
	}
	if len(u.Interpreter) == 0 {
		return oerrors.NewValidationError("no interpreter configured", u.Path, "asset_gen.interpreters", "")
	}

	manifest, err := os.CreateTemp("", "pharaoh-manifest-*.jsonl")
	if err != nil {
		return fmt.Errorf("creating asset manifest: %w", err)
	}
	manifestPath := manifest.Name()
	manifest.Close()
	defer os.Remove(manifestPath)

	resources, err := json.Marshal(u.Resources)
	if err != nil {
		return fmt.Errorf("encoding resources: %w", err)
	}

	runCtx := ctx
	if u.Config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, u.Config.Timeout)
		defer cancel()
	}

	logger.Info("Generating assets from script", "script", u.Source())
	args := append(append([]string{}, u.Interpreter[1:]...), u.Path)
	cmd := exec.CommandContext(runCtx, u.Interpreter[0], args...)
	cmd.Dir = filepath.Dir(u.Path)
	cmd.Env = append(os.Environ(),
		EnvProjectRoot+"="+u.Config.ProjectRoot,
		EnvComponent+"="+u.ComponentName,
		EnvManifest+"="+manifestPath,
		EnvResources+"="+string(resources),
	)
	stdout := output.NewLineWriter(logger.Info)
	stderr := output.NewLineWriter(logger.Warn)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	var errs []error
	if runErr != nil {
		errs = append(errs, u.runError(runCtx, runErr))
	}
	if reg, ok := asset.RegistrarFromContext(ctx); ok {
		if err := registerManifest(reg, manifestPath, cmd.Dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (u *ScriptUnit) runError(runCtx context.Context, err error) error {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("script %s timed out after %s", u.Source(), u.Config.Timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("script %s exited with status %d", u.Source(), exitErr.ExitCode())
	}
	return fmt.Errorf("running script %s: %w", u.Source(), err)
}

// Interpreters converts the asset_gen.interpreters setting. Values are
// argv lists or shell-quoted command strings.
func Interpreters(raw map[string]any) (map[string][]string, error) {
	out := make(map[string][]string, len(raw))
	for ext, v := range raw {
		var argv []string
		switch t := v.(type) {
		case string:
			words, err := shellquote.Split(t)
			if err != nil {
				return nil, oerrors.NewValidationError(
					fmt.Sprintf("invalid interpreter command %q: %v", t, err), "", "asset_gen.interpreters."+ext, "")
			}
			argv = words
		case []any:
			for _, w := range t {
				argv = append(argv, fmt.Sprint(w))
			}
		case []string:
			argv = append(argv, t...)
		default:
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("interpreter for %q must be a list or a string", ext), "", "asset_gen.interpreters."+ext, "")
		}
		if len(argv) == 0 {
			continue
		}
		out[strings.ToLower(strings.TrimPrefix(ext, "."))] = argv
	}
	return out, nil
}

// CompileIgnorePattern compiles the asset_gen.script_ignore_pattern setting.
// The pattern must match the whole file name.
func CompileIgnorePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid script ignore pattern: %v", err), "", "asset_gen.script_ignore_pattern", "")
	}
	return re, nil
}

// DiscoverScripts returns one unit per script below componentDir's asset
// script directory, in lexical order. Files without an interpreter for
// their extension and hidden or private directories are skipped.
func DiscoverScripts(componentDir, component string, cfg ScriptConfig, resources map[string]any) ([]*ScriptUnit, error) {
	root := filepath.Join(componentDir, ScriptsDir)
	var units []*ScriptUnit
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return filepath.SkipDir
			}
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		interp, ok := cfg.Interpreters[ext]
		if !ok {
			return nil
		}
		units = append(units, &ScriptUnit{
			Path:          p,
			ComponentName: component,
			Interpreter:   interp,
			Config:        cfg,
			Resources:     resources,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting asset scripts of %s: %w", component, err)
	}
	return units, nil
}
