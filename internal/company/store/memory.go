// Package store persists companies in memory or in Postgres. Both return
// sentinel errors for missing and duplicate records.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"cnpjd/internal/company/models"
	id "cnpjd/pkg/domain"
	"cnpjd/pkg/platform/sentinel"
)

// InMemory is a map-backed store for tests and single-node runs.
type InMemory struct {
	mu        sync.RWMutex
	companies map[id.CNPJ]*models.Company
}

func NewInMemory() *InMemory {
	return &InMemory{companies: make(map[id.CNPJ]*models.Company)}
}

// RunInTx calls fn directly. Each call is atomic on its own and there is
// nothing to roll back.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Create stores company unless its CNPJ is already registered.
func (s *InMemory) Create(_ context.Context, company *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[company.CNPJ]; ok {
		return fmt.Errorf("company %s: %w", company.CNPJ.Short(), sentinel.ErrConflict)
	}
	cp := *company
	s.companies[company.CNPJ] = &cp
	return nil
}

func (s *InMemory) FindByCNPJ(_ context.Context, cnpj id.CNPJ) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[cnpj]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// FindMany returns the companies found among cnpjs, ordered by CNPJ.
// Unknown values are skipped.
func (s *InMemory) FindMany(_ context.Context, cnpjs []id.CNPJ) ([]*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Company
	seen := make(map[id.CNPJ]bool, len(cnpjs))
	for _, cnpj := range cnpjs {
		if seen[cnpj] {
			continue
		}
		seen[cnpj] = true
		if c, ok := s.companies[cnpj]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortByCNPJ(out)
	return out, nil
}

// ListByRoot returns every establishment sharing root, ordered by CNPJ.
func (s *InMemory) ListByRoot(_ context.Context, root int64) ([]*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Company
	for _, c := range s.companies {
		if c.Root() == root {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortByCNPJ(out)
	return out, nil
}

func sortByCNPJ(companies []*models.Company) {
	slices.SortFunc(companies, func(a, b *models.Company) int {
		return a.CNPJ.Compare(b.CNPJ)
	})
}
