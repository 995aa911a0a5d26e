package errors

import "errors"

// Exit codes returned by the pharaoh binary.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitValidationError indicates invalid input or settings.
	ExitValidationError = 2

	// ExitNotFound indicates a setting, template, component or project was not found.
	ExitNotFound = 5

	// ExitGenerationFailed indicates at least one generation unit failed.
	ExitGenerationFailed = 6

	// ExitBuildFailed indicates the report could not be rendered or built.
	ExitBuildFailed = 7

	// ExitInconsistentProject indicates a damaged project layout.
	ExitInconsistentProject = 8
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int

	// Printed is set when the command already reported the error, so main
	// only has to exit.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, ErrValidation):
		return ExitValidationError
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrAssetGeneration):
		return ExitGenerationFailed
	case errors.Is(err, ErrBuild):
		return ExitBuildFailed
	case errors.Is(err, ErrProjectInconsistent):
		return ExitInconsistentProject
	default:
		return ExitGeneralError
	}
}

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitNotFound:
		return "Not Found"
	case ExitGenerationFailed:
		return "Generation Failed"
	case ExitBuildFailed:
		return "Build Failed"
	case ExitInconsistentProject:
		return "Inconsistent Project"
	default:
		return "Unknown"
	}
}
