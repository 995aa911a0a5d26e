package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/project"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
)

// NewNewCmd creates the new command.
func NewNewCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		tf           cmdutil.TemplateFlags
		forceFlag    bool
		settingsFlag string
	)

	c := &cobra.Command{
		Use:   "new",
		Short: "Create a new report project",
		Long: `Create a new pharaoh report project.

The project is created in the directory given by --project (default: the
working directory). An existing project is reopened unchanged; a non-empty
directory that is not a project is rejected unless --force is given.

Examples:
  # Create a project in ./my-report
  pharaoh new -p my-report

  # Use custom templates, a rendering context and settings overrides
  pharaoh new -p my-report -t pharaoh.default_project -c "{a: 1}" -s ../my_settings.yaml

  # Replace whatever is in the directory
  pharaoh new -p my-report --force`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runNew(c, cfg, &tf, forceFlag, settingsFlag)
		},
	}

	tf.AddTo(c, project.DefaultProjectTemplate)
	c.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite an existing directory")
	c.Flags().StringVarP(&settingsFlag, "settings", "s", "",
		"YAML file with settings that override the project defaults")

	return c
}

func runNew(c *cobra.Command, cfg *cmdtypes.GlobalConfig, tf *cmdutil.TemplateFlags, force bool, settingsFile string) error {
	renderContext, err := tf.RenderContext()
	if err != nil {
		return cmdutil.Fail("invalid arguments", err)
	}

	var custom map[string]any
	if settingsFile != "" {
		path, err := settings.ExpandPath(settingsFile)
		if err != nil {
			return cmdutil.Fail("invalid settings path", err)
		}
		if custom, err = settings.ReadFile(path); err != nil {
			return cmdutil.Fail("reading custom settings", err)
		}
	}

	p, err := project.New(cmdutil.ProjectPath(cfg), project.Options{
		Overwrite:       force,
		Templates:       tf.Templates,
		TemplateContext: renderContext,
		CustomSettings:  custom,
		Plugins:         cfg.Registry(),
	})
	if err != nil {
		return cmdutil.Fail("creating project failed", err)
	}

	fmt.Fprintf(c.OutOrStdout(), "%s\n\n", output.FormatCheckmark("Project ready in "+p.Root()))
	files, err := projectFiles(p.Root())
	if err != nil {
		return cmdutil.Fail("listing project files", err)
	}
	fmt.Fprint(c.OutOrStdout(), output.RenderFileTree(filepath.Base(p.Root()), files))
	return nil
}

var fileDescriptions = map[string]string{
	project.SettingsFile:  "Project settings",
	project.GitIgnoreFile: "Ignores build output",
	"README.md":           "Project readme",
}

// projectFiles lists the files of a project up to three levels deep,
// leaving out build output.
func projectFiles(root string) (map[string]string, error) {
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		switch {
		case d.IsDir() && (d.Name() == project.AssetBuildDir || d.Name() == project.ResourceCacheDir || rel == project.ReportBuildDir):
			return filepath.SkipDir
		case d.IsDir() && strings.Count(filepath.ToSlash(rel), "/") >= 2:
			return filepath.SkipDir
		case d.IsDir():
			return nil
		}
		files[filepath.ToSlash(rel)] = fileDescriptions[filepath.ToSlash(rel)]
		return nil
	})
	return files, err
}
