package handler

import (
	dErrors "cnpjd/pkg/domain-errors"
)

// maxValuesPerRequest bounds a single POST /cnpj/validate batch.
const maxValuesPerRequest = 100

// ValidateRequest is the HTTP request body for POST /cnpj/validate.
type ValidateRequest struct {
	Values []string `json:"values"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ValidateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Values) == 0 {
		return dErrors.New(dErrors.CodeValidation, "values is required")
	}
	if len(r.Values) > maxValuesPerRequest {
		return dErrors.New(dErrors.CodeValidation, "values must contain at most 100 entries")
	}
	return nil
}

// FormatRequest is the HTTP request body for POST /cnpj/format.
type FormatRequest struct {
	CNPJ   string `json:"cnpj"`
	Format string `json:"format"`
}

func (r *FormatRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.CNPJ == "" {
		return dErrors.New(dErrors.CodeValidation, "cnpj is required")
	}
	return nil
}

// DeriveRequest is the HTTP request body for POST /cnpj/derive.
type DeriveRequest struct {
	Base string `json:"base"`
}

func (r *DeriveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Base == "" {
		return dErrors.New(dErrors.CodeValidation, "base is required")
	}
	return nil
}
