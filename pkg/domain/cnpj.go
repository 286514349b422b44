// Package domain holds validated domain primitives. Values are parsed at
// trust boundaries and are valid for as long as they exist.
package domain

import (
	"cmp"
	"fmt"
)

const (
	maxCNPJ     int64 = 99_999_999_999_999
	maxCNPJBase int64 = 999_999_999_999
)

// CNPJ is a Brazilian legal-entity taxpayer registry number: a 12-digit base
// followed by two check digits.
//
// Invariants:
//   - Value is within [0, 99999999999999]
//   - The last two digits are the check digits of the leading twelve
//
// The zero value is EmptyCNPJ, which satisfies both. CNPJ is comparable and
// can be used as a map key.
type CNPJ struct {
	value int64
}

// EmptyCNPJ is the valid, all-zero CNPJ used as a default and failure sentinel.
var EmptyCNPJ = CNPJ{}

// ParseCNPJ parses a CNPJ in any of its textual forms. Separators ('.', '-',
// '/') are ignored wherever they appear.
//
// Errors: ErrCNPJFormat for malformed input, ErrCNPJChecksum when the check
// digits do not match. Both match ErrInvalidCNPJ.
func ParseCNPJ(s string) (CNPJ, error) {
	n, err := normalizeCNPJ(s)
	if err != nil {
		return EmptyCNPJ, err
	}
	return ParseCNPJInt(n)
}

// ParseCNPJInt validates a CNPJ given as its numeric value.
func ParseCNPJInt(n int64) (CNPJ, error) {
	if n < 0 || n > maxCNPJ {
		return EmptyCNPJ, fmt.Errorf("%w: %d is out of range", ErrCNPJFormat, n)
	}
	if !verifyCNPJ(n) {
		return EmptyCNPJ, fmt.Errorf("%w: %014d", ErrCNPJChecksum, n)
	}
	return CNPJ{value: n}, nil
}

// TryParseCNPJ is ParseCNPJ without the error detail. On failure it returns
// EmptyCNPJ and false.
func TryParseCNPJ(s string) (CNPJ, bool) {
	c, err := ParseCNPJ(s)
	if err != nil {
		return EmptyCNPJ, false
	}
	return c, true
}

// TryParseCNPJInt is ParseCNPJInt without the error detail.
func TryParseCNPJInt(n int64) (CNPJ, bool) {
	c, err := ParseCNPJInt(n)
	if err != nil {
		return EmptyCNPJ, false
	}
	return c, true
}

// IsValidCNPJ reports whether s parses as a CNPJ. It accepts any string.
func IsValidCNPJ(s string) bool {
	_, ok := TryParseCNPJ(s)
	return ok
}

// IsValidCNPJInt reports whether n is a valid CNPJ.
func IsValidCNPJInt(n int64) bool {
	return verifyCNPJ(n)
}

// NewCNPJFromBase builds a CNPJ from its 12 leading digits given as text,
// deriving the check digits instead of verifying them.
func NewCNPJFromBase(base string) (CNPJ, error) {
	n, err := normalizeCNPJ(base)
	if err != nil {
		return EmptyCNPJ, err
	}
	return NewCNPJFromBaseInt(n)
}

// NewCNPJFromBaseInt builds a CNPJ from its 12 leading digits.
// Returns ErrCNPJBaseRange when base is outside [0, 999999999999].
func NewCNPJFromBaseInt(base int64) (CNPJ, error) {
	check, err := DeriveCNPJCheckDigits(base)
	if err != nil {
		return EmptyCNPJ, err
	}
	return CNPJ{value: base*100 + int64(check)}, nil
}

// MustCNPJ parses a CNPJ, panicking if invalid.
// Use only in tests or when the value is known to be valid.
func MustCNPJ(s string) CNPJ {
	c, err := ParseCNPJ(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Int64 returns the numeric value.
func (c CNPJ) Int64() int64 {
	return c.value
}

// Base returns the leading twelve digits.
func (c CNPJ) Base() int64 {
	return c.value / 100
}

// CheckDigits returns the trailing two digits.
func (c CNPJ) CheckDigits() int {
	return int(c.value % 100)
}

// Root returns the leading eight digits, shared by every establishment of
// the same company.
func (c CNPJ) Root() int64 {
	return c.value / 1_000_000
}

// Branch returns digits nine to twelve, the establishment order within the root.
func (c CNPJ) Branch() int {
	return int(c.Base() % 10_000)
}

// IsHeadOffice reports whether this is establishment 0001.
func (c CNPJ) IsHeadOffice() bool {
	return c.Branch() == 1
}

// IsZero reports whether c is EmptyCNPJ.
func (c CNPJ) IsZero() bool {
	return c.value == 0
}

// Compare orders CNPJs by numeric value.
func (c CNPJ) Compare(other CNPJ) int {
	return cmp.Compare(c.value, other.value)
}

// Equal reports whether both hold the same number.
func (c CNPJ) Equal(other CNPJ) bool {
	return c.value == other.value
}
