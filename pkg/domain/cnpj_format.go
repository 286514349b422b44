package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CNPJFormat selects a textual rendering of a CNPJ.
// Construct via ParseCNPJFormat at trust boundaries; tags are case-insensitive.
type CNPJFormat string

// Supported renderings, shown for 00.444.777/0001-45.
const (
	CNPJFormatShort   CNPJFormat = "S" // 444777000145
	CNPJFormatBare    CNPJFormat = "B" // 00444777000145
	CNPJFormatGeneral CNPJFormat = "G" // 00.444.777/0001-45
)

var validCNPJFormats = map[CNPJFormat]bool{
	CNPJFormatShort:   true,
	CNPJFormatBare:    true,
	CNPJFormatGeneral: true,
}

// ParseCNPJFormat returns the format for tag, ignoring case.
func ParseCNPJFormat(tag string) (CNPJFormat, error) {
	f := CNPJFormat(strings.ToUpper(tag))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCNPJFormat, tag)
	}
	return f, nil
}

// IsValid checks if the format is one of S, B or G (upper case).
func (f CNPJFormat) IsValid() bool {
	return validCNPJFormats[f]
}

func (f CNPJFormat) String() string {
	return string(f)
}

// FormatAs renders c using the given format tag.
func (c CNPJ) FormatAs(f CNPJFormat) (string, error) {
	parsed, err := ParseCNPJFormat(string(f))
	if err != nil {
		return "", err
	}
	switch parsed {
	case CNPJFormatShort:
		return c.Short(), nil
	case CNPJFormatBare:
		return c.Bare(), nil
	default:
		return c.General(), nil
	}
}

// Short renders the plain decimal value, without leading zeros.
func (c CNPJ) Short() string {
	return strconv.FormatInt(c.value, 10)
}

// Bare renders exactly 14 digits, zero-padded.
func (c CNPJ) Bare() string {
	return fmt.Sprintf("%014d", c.value)
}

// General renders the punctuated form NN.NNN.NNN/NNNN-NN.
func (c CNPJ) General() string {
	b := c.Bare()
	return b[0:2] + "." + b[2:5] + "." + b[5:8] + "/" + b[8:12] + "-" + b[12:14]
}

// String returns the general form.
func (c CNPJ) String() string {
	return c.General()
}
