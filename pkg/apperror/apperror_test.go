package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSample = Validation("SAMPLE_001", "sample failed")

func TestError_IsMatchesByCode(t *testing.T) {
	withDetails := errSample.WithDetails([]string{"a"})
	wrapped := fmt.Errorf("outer: %w", withDetails)

	assert.True(t, errors.Is(wrapped, errSample))
	assert.False(t, errors.Is(wrapped, NotFound("OTHER", "x")))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("tx: %w", Conflict("C", "busy"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("pg down")
	err := Internal("DB", "query failed").Wrap(cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "pg down")

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "DB", appErr.Code)
}
