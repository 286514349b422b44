package handler

import (
	"cnpjd/internal/validation"
	id "cnpjd/pkg/domain"
)

// ValidateResult is one entry of the POST /cnpj/validate response.
type ValidateResult struct {
	Input  string   `json:"input"`
	Valid  bool     `json:"valid"`
	CNPJ   *id.CNPJ `json:"cnpj,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

type ValidateResponse struct {
	Results []ValidateResult `json:"results"`
}

type FormatResponse struct {
	CNPJ string `json:"cnpj"`
}

type DeriveResponse struct {
	CNPJ        string `json:"cnpj"`
	Short       string `json:"short"`
	Bare        string `json:"bare"`
	CheckDigits int    `json:"check_digits"`
}

func toValidateResponse(results []validation.Result) *ValidateResponse {
	out := make([]ValidateResult, len(results))
	for i, r := range results {
		out[i] = ValidateResult{Input: r.Input, Valid: r.Valid, Reason: string(r.Reason)}
		if r.Valid {
			c := r.CNPJ
			out[i].CNPJ = &c
		}
	}
	return &ValidateResponse{Results: out}
}

func toDeriveResponse(c id.CNPJ) *DeriveResponse {
	return &DeriveResponse{
		CNPJ:        c.General(),
		Short:       c.Short(),
		Bare:        c.Bare(),
		CheckDigits: c.CheckDigits(),
	}
}
