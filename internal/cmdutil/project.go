package cmdutil

import (
	"errors"
	"os"

	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/project"
)

// EnvProject names the environment variable backing --project.
const EnvProject = "PHARAOH_PROJECT"

// ProjectPath returns the directory the global flags point at: the --project
// flag, then $PHARAOH_PROJECT, then the working directory.
func ProjectPath(cfg *cmdtypes.GlobalConfig) string {
	if cfg != nil && cfg.ProjectFlag != "" {
		return cfg.ProjectFlag
	}
	if env := os.Getenv(EnvProject); env != "" {
		return env
	}
	return "."
}

// OpenProject opens the project selected by the global flags. Without an
// explicit path the project is searched upwards from the working directory.
func OpenProject(cfg *cmdtypes.GlobalConfig) (*project.Project, error) {
	path := ProjectPath(cfg)
	root := path
	if path == "." {
		found, err := project.Find(path)
		if err != nil {
			if errors.Is(err, oerrors.ErrNotFound) {
				return nil, oerrors.NewNotFoundError(
					"no pharaoh project found in the working directory or its parents", "",
					"Create one with 'pharaoh new' or pass --project")
			}
			return nil, err
		}
		root = found
	}
	return project.Open(root, cfg.Registry())
}
