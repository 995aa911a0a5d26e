package cmdutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

func TestFail(t *testing.T) {
	assert.NoError(t, Fail("nothing", nil))

	err := Fail("generate failed", fmt.Errorf("run: %w", oerrors.ErrAssetGeneration))
	var exitErr *oerrors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, oerrors.ExitGenerationFailed, exitErr.Code)
	assert.True(t, exitErr.Printed)
	assert.ErrorIs(t, err, oerrors.ErrAssetGeneration)
}
