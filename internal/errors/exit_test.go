//nolint:revive // Package name matches the package it tests
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", fmt.Errorf("boom"), ExitGeneralError},
		{"validation", NewValidationError("bad", "", "asset_gen.worker_processes", ""), ExitValidationError},
		{"setting not found", NewSettingNotFoundError("a.b"), ExitNotFound},
		{"generation", &GenerationError{Failures: []UnitFailure{{Source: "x", Err: fmt.Errorf("y")}}}, ExitGenerationFailed},
		{"build", fmt.Errorf("rendering: %w", ErrBuild), ExitBuildFailed},
		{"inconsistent", NewInconsistentProjectError("/p", []string{"pharaoh.yaml"}), ExitInconsistentProject},
		{"locked", fmt.Errorf("generate: %w", ErrLocked), ExitGeneralError},
		{"explicit", NewExitError(ErrNotFound, ExitBuildFailed), ExitBuildFailed},
		{"wrapped explicit", fmt.Errorf("outer: %w", NewExitError(fmt.Errorf("x"), 3)), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFromError(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	inner := fmt.Errorf("inner")
	err := NewExitError(inner, ExitValidationError)

	assert.Equal(t, "inner", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.False(t, err.Printed)
}

func TestExitCodeName(t *testing.T) {
	assert.Equal(t, "Success", ExitCodeName(ExitSuccess))
	assert.Equal(t, "Generation Failed", ExitCodeName(ExitGenerationFailed))
	assert.Equal(t, "Inconsistent Project", ExitCodeName(ExitInconsistentProject))
	assert.Equal(t, "Unknown", ExitCodeName(42))
}
