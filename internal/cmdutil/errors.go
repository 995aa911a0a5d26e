package cmdutil

import (
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// Fail logs err under msg and returns it as an *ExitError that main will not
// print again. The exit code follows ExitCodeFromError.
func Fail(msg string, err error) error {
	if err == nil {
		return nil
	}
	output.Error(msg, "error", err)
	return &oerrors.ExitError{
		Err:     err,
		Code:    oerrors.ExitCodeFromError(err),
		Printed: true,
	}
}
