package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "cnpjd/pkg/domain"
	dErrors "cnpjd/pkg/domain-errors"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		input  string
		valid  bool
		reason Reason
	}{
		{"11.022.233/3000-91", true, ReasonNone},
		{"00444777000145", true, ReasonNone},
		{"444777000145", true, ReasonNone},
		{"11.022.233/3000-92", false, ReasonChecksum},
		{"99999999999999", false, ReasonChecksum},
		{"11 022 233 3000 91", false, ReasonFormat},
		{"", false, ReasonFormat},
		{"123456789012345", false, ReasonFormat},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Check(tt.input)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, tt.input, got.Input)
			if tt.valid {
				assert.False(t, got.CNPJ.IsZero())
			}
		})
	}
}

func TestCheckAllPreservesOrder(t *testing.T) {
	got := CheckAll([]string{"bad", "444777000145"})
	require.Len(t, got, 2)
	assert.False(t, got[0].Valid)
	assert.Equal(t, int64(444777000145), got[1].CNPJ.Int64())
}

func TestFormat(t *testing.T) {
	s, err := Format("444777000145", "")
	require.NoError(t, err)
	assert.Equal(t, "00.444.777/0001-45", s)

	s, err = Format("00.444.777/0001-45", "b")
	require.NoError(t, err)
	assert.Equal(t, "00444777000145", s)

	_, err = Format("444777000145", "X")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.ErrorIs(t, err, id.ErrUnknownCNPJFormat)
	assert.ErrorIs(t, err, id.ErrCNPJFormat)

	_, err = Format("444777000146", "S")
	assert.ErrorIs(t, err, id.ErrCNPJChecksum)
}

func TestDerive(t *testing.T) {
	c, err := Derive("004447770001")
	require.NoError(t, err)
	assert.Equal(t, 45, c.CheckDigits())

	_, err = Derive("12a")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
