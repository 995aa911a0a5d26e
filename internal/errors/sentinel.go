package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrValidation indicates invalid input or a settings schema violation.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a setting key, template, component, resource type
	// or metadata frame that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates two values collided during a safe merge.
	ErrConflict = errors.New("conflict")

	// ErrAssetFileLinkBroken indicates an asset info record without its artifact.
	ErrAssetFileLinkBroken = errors.New("asset file link broken")

	// ErrProjectInconsistent indicates a directory that looks like a project
	// but is missing part of the required structure.
	ErrProjectInconsistent = errors.New("project inconsistent")

	// ErrAssetGeneration indicates at least one generation unit failed.
	ErrAssetGeneration = errors.New("asset generation failed")

	// ErrBuild indicates the report builder failed.
	ErrBuild = errors.New("report build failed")

	// ErrLocked indicates another process holds the asset build lock.
	ErrLocked = errors.New("locked")
)
