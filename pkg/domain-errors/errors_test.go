package domainerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(errStoreDown, CodeInternal, "failed to load company")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errStoreDown))
	assert.True(t, HasCode(err, CodeInternal))
	assert.Equal(t, "failed to load company: store down", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestCodeOf(t *testing.T) {
	t.Run("coded error", func(t *testing.T) {
		assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "company not found")))
	})

	t.Run("plain error defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errStoreDown))
	})

	t.Run("outermost code wins", func(t *testing.T) {
		inner := New(CodeConflict, "duplicate")
		outer := Wrap(inner, CodeValidation, "rejected")
		assert.Equal(t, CodeValidation, CodeOf(outer))
		assert.False(t, HasCode(outer, CodeConflict))
	})
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeInvariantViolation, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}
