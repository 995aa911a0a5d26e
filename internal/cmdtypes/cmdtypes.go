// Package cmdtypes provides shared types for the cmd package and its sub-packages.
// It is separate from internal/cmd to avoid import cycles between internal/cmd
// and its sub-packages (internal/cmd/settings, internal/cmd/asset, ...).
package cmdtypes

import (
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/plugins"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every sub-command
// constructor.
type GlobalConfig struct {
	// ProjectFlag is the raw --project value (env: PHARAOH_PROJECT).
	// Empty means the project is searched upwards from the working directory.
	ProjectFlag string

	Verbose bool

	// Plugins provides defaults, templates and resource types.
	// Nil means plugins.Default().
	Plugins *plugins.Registry
}

// Registry returns the configured plugin registry.
func (c *GlobalConfig) Registry() *plugins.Registry {
	if c == nil || c.Plugins == nil {
		return plugins.Default()
	}
	return c.Plugins
}

// Exit codes, aliased from internal/errors.
const (
	ExitSuccess             = oerrors.ExitSuccess
	ExitGeneralError        = oerrors.ExitGeneralError
	ExitValidationError     = oerrors.ExitValidationError
	ExitNotFound            = oerrors.ExitNotFound
	ExitGenerationFailed    = oerrors.ExitGenerationFailed
	ExitBuildFailed         = oerrors.ExitBuildFailed
	ExitInconsistentProject = oerrors.ExitInconsistentProject
)

// ExitError is a type alias to internal/errors.ExitError.
type ExitError = oerrors.ExitError
