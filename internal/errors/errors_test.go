package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	testCases := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "code and message",
			err:      NewValidationError("ERR_X", "bad input"),
			expected: "[ERR_X] bad input",
		},
		{
			name:     "message only",
			err:      &Error{Type: ErrorTypeInternal, Message: "boom"},
			expected: "boom",
		},
		{
			name:     "with cause",
			err:      NewInternalError("ERR_Y", "failed", fmt.Errorf("disk full")),
			expected: "[ERR_Y] failed: disk full",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := ErrUncloneable("chan")

	assert.True(t, errors.Is(err, &Error{Type: ErrorTypeUnsupported, Code: ErrCodeUncloneable}))
	assert.False(t, errors.Is(err, &Error{Type: ErrorTypeValidation, Code: ErrCodeUncloneable}))
	assert.Equal(t, "chan", err.Context["kind"])
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "ERR_IO", "read"))

	base := errors.New("no such file")
	wrapped := WrapIO(base, "ERR_IO", "read document")
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeIO, wrapped.Type)
	assert.ErrorIs(t, wrapped, base)

	inner := ErrInvalidPath("a.b")
	outer := WrapValidation(inner, ErrCodeInvalidStep, "step 2")
	assert.Equal(t, "a.b", outer.Context["path"])
	assert.True(t, HasCode(outer, ErrCodeInvalidPath))
	assert.True(t, HasCode(outer, ErrCodeInvalidStep))
	assert.False(t, HasCode(outer, ErrCodeUncloneable))
}

func TestCombineErrors(t *testing.T) {
	assert.NoError(t, CombineErrors(nil, nil))

	single := errors.New("one")
	assert.Equal(t, single, CombineErrors(nil, single))

	a, b := errors.New("a"), errors.New("b")
	combined := CombineErrors(a, nil, b)
	require.Error(t, combined)
	assert.True(t, HasCode(combined, ErrCodeMultiple))
	assert.ErrorIs(t, combined, a)
	assert.ErrorIs(t, combined, b)

	var e *Error
	require.True(t, errors.As(combined, &e))
	assert.Equal(t, 2, e.Context["error_count"])
}

func TestChainHelpers(t *testing.T) {
	base := errors.New("permission denied")
	inner := WrapIO(base, ErrCodeDecode, "cannot read document").WithContext("path", "state.yaml")
	outer := &Error{Type: ErrorTypeValidation, Code: ErrCodeInvalidStep, Message: "step failed", Cause: inner, Context: map[string]interface{}{"step": 3}}

	chain := Chain(outer)
	require.Len(t, chain, 3)
	assert.Same(t, outer, chain[0])
	assert.Equal(t, base, chain[2])

	assert.True(t, HasType(outer, ErrorTypeIO))
	assert.False(t, HasType(outer, ErrorTypeConfig))
	assert.False(t, HasType(base, ErrorTypeIO))

	assert.Equal(t, map[string]interface{}{"path": "state.yaml", "step": 3}, ContextOf(outer))
	assert.Empty(t, ContextOf(nil))
}

func TestAnnotate(t *testing.T) {
	t.Run("wrapped error", func(t *testing.T) {
		inner := NewValidationError(ErrCodeInvalidPath, "no such key")
		wrapped := fmt.Errorf("applying step: %w", inner)

		got := Annotate(wrapped, "step", 2)

		assert.Same(t, wrapped, got, "the wrapper is kept")
		assert.Equal(t, 2, inner.Context["step"])
		assert.Equal(t, map[string]interface{}{"step": 2}, ContextOf(got))
	})

	t.Run("outermost error wins", func(t *testing.T) {
		inner := NewValidationError(ErrCodeDecode, "bad yaml")
		outer := WrapIO(inner, ErrCodeDecode, "cannot load")

		Annotate(outer, "path", "state.yaml")

		assert.Equal(t, "state.yaml", outer.Context["path"])
		assert.Nil(t, inner.Context)
	})

	t.Run("plain error", func(t *testing.T) {
		plain := errors.New("boom")
		assert.Equal(t, plain, Annotate(plain, "step", 1))
		assert.Nil(t, Annotate(nil, "step", 1))
	})
}
