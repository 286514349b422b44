package handler

import (
	id "cnpjd/pkg/domain"
	dErrors "cnpjd/pkg/domain-errors"
)

const (
	maxLookupSize = 100
	// maxNameBytes bounds name fields before decoding runes; the 150
	// character limit is enforced by the company model.
	maxNameBytes = 1024
)

// RegisterRequest is the HTTP request body for POST /companies.
type RegisterRequest struct {
	CNPJ      string `json:"cnpj"`
	LegalName string `json:"legal_name"`
	TradeName string `json:"trade_name"`

	parsedCNPJ id.CNPJ
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	// Size validation (fail fast)
	if len(r.LegalName) > maxNameBytes || len(r.TradeName) > maxNameBytes {
		return dErrors.New(dErrors.CodeValidation, "names must be at most 1024 bytes")
	}
	if r.CNPJ == "" {
		return dErrors.New(dErrors.CodeValidation, "cnpj is required")
	}
	c, err := id.ParseCNPJ(r.CNPJ)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid cnpj")
	}
	r.parsedCNPJ = c
	return nil
}

func (r *RegisterRequest) ParsedCNPJ() id.CNPJ {
	return r.parsedCNPJ
}

// RegisterBranchRequest is the HTTP request body for POST /companies/{cnpj}/branches.
type RegisterBranchRequest struct {
	Branch    int    `json:"branch"`
	TradeName string `json:"trade_name"`
}

func (r *RegisterBranchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Branch < 1 || r.Branch > 9999 {
		return dErrors.New(dErrors.CodeValidation, "branch must be between 1 and 9999")
	}
	if len(r.TradeName) > maxNameBytes {
		return dErrors.New(dErrors.CodeValidation, "trade_name must be at most 1024 bytes")
	}
	return nil
}

// LookupRequest is the HTTP request body for POST /companies/lookup.
type LookupRequest struct {
	CNPJs []string `json:"cnpjs"`

	parsed []id.CNPJ
}

func (r *LookupRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.CNPJs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "cnpjs is required")
	}
	if len(r.CNPJs) > maxLookupSize {
		return dErrors.New(dErrors.CodeValidation, "cnpjs must contain at most 100 entries")
	}
	r.parsed = make([]id.CNPJ, 0, len(r.CNPJs))
	for _, s := range r.CNPJs {
		c, err := id.ParseCNPJ(s)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid cnpj "+s)
		}
		r.parsed = append(r.parsed, c)
	}
	return nil
}

func (r *LookupRequest) ParsedCNPJs() []id.CNPJ {
	return r.parsed
}
