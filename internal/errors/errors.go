// Package errors provides sentinel and structured errors for pharaoh.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// DetailError captures structured error information.
type DetailError struct {
	// Type is the error category (required).
	Type string

	// Message is the specific description (required).
	Message string

	// Location is the file path and line number (optional).
	Location string

	// Field is the setting key or record field involved (optional).
	Field string

	// Context contains additional key-value context (optional).
	Context map[string]string

	// Hint provides actionable guidance (optional).
	Hint string

	// Cause is the underlying error (optional).
	Cause error
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	var b strings.Builder

	b.WriteString("Error: ")
	b.WriteString(e.Type)
	b.WriteString("\n")

	if e.Location != "" {
		b.WriteString("  Location: ")
		b.WriteString(e.Location)
		b.WriteString("\n")
	}
	if e.Field != "" {
		b.WriteString("  Field: ")
		b.WriteString(e.Field)
		b.WriteString("\n")
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Context[k])
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Hint != "" {
		b.WriteString("\nHint: ")
		b.WriteString(e.Hint)
		b.WriteString("\n")
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *DetailError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error with details.
func NewValidationError(message, location, field, hint string) error {
	return &DetailError{
		Type:     "validation failed",
		Message:  message,
		Location: location,
		Field:    field,
		Hint:     hint,
		Cause:    ErrValidation,
	}
}

// NewNotFoundError creates a not found error with details.
func NewNotFoundError(message, location, hint string) error {
	return &DetailError{
		Type:     "not found",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrNotFound,
	}
}

// NewSettingNotFoundError reports a missing settings key.
func NewSettingNotFoundError(key string) error {
	return &DetailError{
		Type:    "setting not found",
		Message: fmt.Sprintf("No setting key called %q", key),
		Field:   key,
		Hint:    "Run 'pharaoh settings show' to list the effective settings",
		Cause:   ErrNotFound,
	}
}

// NewInconsistentProjectError reports a damaged project layout.
func NewInconsistentProjectError(root string, missing []string) error {
	return &DetailError{
		Type:     "project inconsistent",
		Message:  "The project directory is missing required entries: " + strings.Join(missing, ", "),
		Location: root,
		Hint:     "Recreate the project with 'pharaoh new --force' or restore the missing entries",
		Cause:    ErrProjectInconsistent,
	}
}

// NewTemplateDependencyError reports templates needed by components but
// rendered by none.
func NewTemplateDependencyError(missing []string) error {
	return &DetailError{
		Type:    "project inconsistent",
		Message: "The used templates require components rendering: " + strings.Join(missing, ", "),
		Hint:    "Add a component with 'pharaoh add --template NAME' for each missing template",
		Cause:   ErrProjectInconsistent,
	}
}

// NewAssetLinkBrokenError reports an info record without a matching artifact.
func NewAssetLinkBrokenError(infoFile string) error {
	return &DetailError{
		Type:     "asset file link broken",
		Message:  "Could not find the asset file belonging to the asset info file",
		Location: infoFile,
		Hint:     "Re-run 'pharaoh generate' for the component",
		Cause:    ErrAssetFileLinkBroken,
	}
}

// ConflictError reports a safe-merge collision at a dotted key path.
type ConflictError struct {
	Path string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict at %s: only unique keys are allowed", e.Path)
}

// Unwrap returns ErrConflict.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// UnitFailure describes one failed generation unit.
type UnitFailure struct {
	// Source identifies the unit, usually the script path.
	Source string

	// Err is the error the unit returned or the recovered panic.
	Err error

	// Trace is the captured stack trace, empty for regular errors.
	Trace string
}

// GenerationError aggregates all failed generation units of one run.
type GenerationError struct {
	Failures []UnitFailure
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("At least one error occurred while executing asset generation units:\n")
	for i, f := range e.Failures {
		fmt.Fprintf(&b, "\n\nError #%d: %s\n%v", i+1, f.Source, f.Err)
		if f.Trace != "" {
			b.WriteString("\n")
			b.WriteString(f.Trace)
		}
	}
	return b.String()
}

// Unwrap returns ErrAssetGeneration.
func (e *GenerationError) Unwrap() error {
	return ErrAssetGeneration
}

// Wrap wraps an error with a sentinel error type.
func Wrap(sentinel error, message string) error {
	return fmt.Errorf("%s: %w", message, sentinel)
}
