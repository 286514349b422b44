package handler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"cnpjd/internal/company/models"
)

// CompanyResponse is the public view of a registered establishment.
type CompanyResponse struct {
	ID         uuid.UUID `json:"id"`
	CNPJ       string    `json:"cnpj"`
	Short      string    `json:"short"`
	Root       string    `json:"root"`
	Branch     int       `json:"branch"`
	HeadOffice bool      `json:"head_office"`
	LegalName  string    `json:"legal_name"`
	TradeName  string    `json:"trade_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type CompanyListResponse struct {
	Companies []*CompanyResponse `json:"companies"`
	Count     int                `json:"count"`
}

func toCompanyResponse(c *models.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:         c.ID,
		CNPJ:       c.CNPJ.General(),
		Short:      c.CNPJ.Short(),
		Root:       fmt.Sprintf("%08d", c.Root()),
		Branch:     c.CNPJ.Branch(),
		HeadOffice: c.IsHeadOffice(),
		LegalName:  c.LegalName,
		TradeName:  c.TradeName,
		CreatedAt:  c.CreatedAt,
	}
}

func toCompanyList(companies []*models.Company) *CompanyListResponse {
	out := make([]*CompanyResponse, len(companies))
	for i, c := range companies {
		out[i] = toCompanyResponse(c)
	}
	return &CompanyListResponse{Companies: out, Count: len(out)}
}
