// Package validation exposes stateless CNPJ checks shared by the HTTP API
// and the command-line tool.
package validation

import (
	"errors"

	id "cnpjd/pkg/domain"
	dErrors "cnpjd/pkg/domain-errors"
)

// Reason explains why an input failed validation.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonFormat   Reason = "format"
	ReasonChecksum Reason = "checksum"
)

// Result is the outcome of checking a single input.
type Result struct {
	Input  string
	CNPJ   id.CNPJ
	Valid  bool
	Reason Reason
}

// Check parses input and classifies any failure.
func Check(input string) Result {
	c, err := id.ParseCNPJ(input)
	if err != nil {
		return Result{Input: input, Reason: reasonOf(err)}
	}
	return Result{Input: input, CNPJ: c, Valid: true}
}

// CheckAll runs Check over inputs, preserving order.
func CheckAll(inputs []string) []Result {
	out := make([]Result, len(inputs))
	for i, in := range inputs {
		out[i] = Check(in)
	}
	return out
}

func reasonOf(err error) Reason {
	if errors.Is(err, id.ErrCNPJChecksum) {
		return ReasonChecksum
	}
	return ReasonFormat
}

// Format parses input and renders it with the given format tag. An empty tag
// means the general form.
func Format(input, tag string) (string, error) {
	if tag == "" {
		tag = string(id.CNPJFormatGeneral)
	}
	f, err := id.ParseCNPJFormat(tag)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid format")
	}
	c, err := id.ParseCNPJ(input)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid cnpj")
	}
	return c.FormatAs(f)
}

// Derive completes a 12-digit base with its check digits.
func Derive(base string) (id.CNPJ, error) {
	c, err := id.NewCNPJFromBase(base)
	if err != nil {
		return id.EmptyCNPJ, dErrors.Wrap(err, dErrors.CodeValidation, "invalid base")
	}
	return c, nil
}
