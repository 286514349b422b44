package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	id "cnpjd/pkg/domain"
	dErrors "cnpjd/pkg/domain-errors"
)

const maxNameLength = 150

// Company is a registered legal entity establishment, keyed by its CNPJ.
//
// Invariants:
//   - CNPJ is a valid, non-empty value
//   - LegalName is non-empty and at most 150 characters
//   - TradeName is at most 150 characters
//   - CreatedAt is immutable after construction
type Company struct {
	ID        uuid.UUID `json:"id"`
	CNPJ      id.CNPJ   `json:"cnpj"`
	LegalName string    `json:"legal_name"`
	TradeName string    `json:"trade_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCompany(companyID uuid.UUID, cnpj id.CNPJ, legalName, tradeName string, now time.Time) (*Company, error) {
	if cnpj.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cnpj is required")
	}
	legalName = strings.TrimSpace(legalName)
	tradeName = strings.TrimSpace(tradeName)
	if legalName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "legal name cannot be empty")
	}
	if utf8.RuneCountInString(legalName) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "legal name must be 150 characters or less")
	}
	if utf8.RuneCountInString(tradeName) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "trade name must be 150 characters or less")
	}
	return &Company{
		ID:        companyID,
		CNPJ:      cnpj,
		LegalName: legalName,
		TradeName: tradeName,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Root is the 8-digit company root shared by every establishment.
func (c *Company) Root() int64 {
	return c.CNPJ.Root()
}

func (c *Company) IsHeadOffice() bool {
	return c.CNPJ.IsHeadOffice()
}

// NewBranch builds the establishment number branch of head, inheriting the
// legal name. head must be a head office and branch must be in [1, 9999].
func NewBranch(companyID uuid.UUID, head *Company, branch int, tradeName string, now time.Time) (*Company, error) {
	if !head.IsHeadOffice() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "branches can only be registered under a head office")
	}
	if branch < 1 || branch > 9999 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "branch must be between 1 and 9999")
	}
	cnpj, err := id.NewCNPJFromBaseInt(head.Root()*10_000 + int64(branch))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "cannot derive branch cnpj")
	}
	return NewCompany(companyID, cnpj, head.LegalName, tradeName, now)
}
