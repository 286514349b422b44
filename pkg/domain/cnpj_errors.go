package domain

import (
	"errors"
	"fmt"
)

// CNPJ rejection errors. Returned errors wrap one of these with the offending
// input, so callers match with errors.Is.
var (
	// ErrInvalidCNPJ matches every rejected CNPJ candidate, malformed or not.
	ErrInvalidCNPJ = errors.New("invalid CNPJ")

	// ErrCNPJFormat: empty input, characters other than digits and the
	// accepted separators, a magnitude beyond 14 digits, or an unknown
	// format tag.
	ErrCNPJFormat = fmt.Errorf("%w: malformed", ErrInvalidCNPJ)

	// ErrCNPJChecksum: well-formed number whose last two digits are not the
	// check digits of its first twelve.
	ErrCNPJChecksum = fmt.Errorf("%w: check digits do not match", ErrInvalidCNPJ)

	// ErrCNPJBaseRange: a base outside [0, 999999999999] was supplied for
	// check digit derivation.
	ErrCNPJBaseRange = errors.New("CNPJ base out of range")

	// ErrUnknownCNPJFormat: a format tag other than S, B or G. Matches
	// ErrCNPJFormat.
	ErrUnknownCNPJFormat = fmt.Errorf("%w: unknown format, must be S, B or G", ErrCNPJFormat)
)
