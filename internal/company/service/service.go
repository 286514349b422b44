package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"cnpjd/internal/audit"
	companymetrics "cnpjd/internal/company/metrics"
	"cnpjd/internal/company/models"
	id "cnpjd/pkg/domain"
	dErrors "cnpjd/pkg/domain-errors"
	"cnpjd/pkg/platform/sentinel"
	"cnpjd/pkg/requestcontext"
)

const (
	// lookupBatchSize is how many cache misses go to the store per query.
	lookupBatchSize = 25
	// lookupConcurrency bounds concurrent store queries during Lookup.
	lookupConcurrency = 4
)

type Store interface {
	Create(ctx context.Context, company *models.Company) error
	FindByCNPJ(ctx context.Context, cnpj id.CNPJ) (*models.Company, error)
	FindMany(ctx context.Context, cnpjs []id.CNPJ) ([]*models.Company, error)
	ListByRoot(ctx context.Context, root int64) ([]*models.Company, error)
	// RunInTx runs fn so that store calls made with the ctx it receives
	// commit or roll back together.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Cache interface {
	Get(ctx context.Context, cnpj id.CNPJ) (*models.Company, bool)
	GetMany(ctx context.Context, cnpjs []id.CNPJ) map[id.CNPJ]*models.Company
	Set(ctx context.Context, company *models.Company)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates company registration and lookup.
type Service struct {
	store          Store
	cache          Cache
	auditPublisher AuditPublisher
	metrics        *companymetrics.Metrics
	logger         *slog.Logger
	fills          singleflight.Group
}

type Option func(*Service)

func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *companymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service. The cache, audit publisher and metrics are optional.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("company store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = noopCache{}
	}
	return s, nil
}

// Register stores a new establishment.
func (s *Service) Register(ctx context.Context, cnpj id.CNPJ, legalName, tradeName string) (*models.Company, error) {
	company, err := models.NewCompany(uuid.New(), cnpj, legalName, tradeName, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	if err := s.insert(ctx, company); err != nil {
		return nil, err
	}
	s.cache.Set(ctx, company)

	s.emit(ctx, audit.Event{Action: audit.ActionCompanyRegistered, Subject: company.CNPJ.Short()})
	s.incrementRegistered("head")
	s.logger.InfoContext(ctx, "company registered",
		"request_id", requestcontext.RequestID(ctx),
		"cnpj", company.CNPJ.Short(),
	)
	return company, nil
}

// RegisterBranch derives establishment number branch from the head office
// identified by head and stores it with the head's legal name.
func (s *Service) RegisterBranch(ctx context.Context, head id.CNPJ, branch int, tradeName string) (*models.Company, error) {
	if head.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "head office cnpj is required")
	}
	var company *models.Company
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		headCompany, err := s.store.FindByCNPJ(ctx, head)
		if err != nil {
			return wrapStoreErr(err, "head office not found")
		}
		company, err = models.NewBranch(uuid.New(), headCompany, branch, tradeName, requestcontext.Now(ctx))
		if err != nil {
			return toValidation(err)
		}
		return s.insert(ctx, company)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, company)

	s.emit(ctx, audit.Event{
		Action:  audit.ActionBranchRegistered,
		Subject: company.CNPJ.Short(),
		Reason:  "head " + head.Short(),
	})
	s.incrementRegistered("branch")
	s.logger.InfoContext(ctx, "branch registered",
		"request_id", requestcontext.RequestID(ctx),
		"head", head.Short(),
		"cnpj", company.CNPJ.Short(),
	)
	return company, nil
}

func (s *Service) insert(ctx context.Context, company *models.Company) error {
	if err := s.store.Create(ctx, company); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.emit(ctx, audit.Event{
				Action:  audit.ActionCompanyRegistrationFail,
				Subject: company.CNPJ.Short(),
				Reason:  "already_registered",
			})
			return dErrors.New(dErrors.CodeConflict, "company already registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register company")
	}
	return nil
}

// Get returns the company for cnpj. Concurrent misses for the same CNPJ share
// one store read.
func (s *Service) Get(ctx context.Context, cnpj id.CNPJ) (*models.Company, error) {
	if cnpj.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "cnpj is required")
	}
	if company, ok := s.cache.Get(ctx, cnpj); ok {
		s.incrementCacheHit()
		return company, nil
	}
	s.incrementCacheMiss()

	v, err, _ := s.fills.Do(cnpj.Short(), func() (any, error) {
		company, err := s.store.FindByCNPJ(ctx, cnpj)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, company)
		return company, nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "company not found")
	}
	cp := *v.(*models.Company)
	return &cp, nil
}

// Lookup resolves many CNPJs at once. Unknown CNPJs are omitted; the result
// follows the order of first appearance in cnpjs.
func (s *Service) Lookup(ctx context.Context, cnpjs []id.CNPJ) ([]*models.Company, error) {
	if s.metrics != nil {
		defer s.metrics.ObserveLookup(time.Now())
	}
	unique := dedupe(cnpjs)
	found := s.cache.GetMany(ctx, unique)

	var misses []id.CNPJ
	for _, cnpj := range unique {
		if _, ok := found[cnpj]; ok {
			s.incrementCacheHit()
			continue
		}
		s.incrementCacheMiss()
		misses = append(misses, cnpj)
	}

	batches := chunk(misses, lookupBatchSize)
	results := make([][]*models.Company, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			companies, err := s.store.FindMany(gctx, batch)
			if err != nil {
				return err
			}
			results[i] = companies
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up companies")
	}

	for _, companies := range results {
		for _, c := range companies {
			found[c.CNPJ] = c
			s.cache.Set(ctx, c)
		}
	}

	out := make([]*models.Company, 0, len(found))
	for _, cnpj := range unique {
		if c, ok := found[cnpj]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListByRoot returns every establishment registered under root.
func (s *Service) ListByRoot(ctx context.Context, root int64) ([]*models.Company, error) {
	if root < 0 || root > 99_999_999 {
		return nil, dErrors.New(dErrors.CodeValidation, "root must have at most 8 digits")
	}
	companies, err := s.store.ListByRoot(ctx, root)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list companies")
	}
	return companies, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
	}
}

func (s *Service) incrementRegistered(kind string) {
	if s.metrics != nil {
		s.metrics.IncrementRegistered(kind)
	}
}

func (s *Service) incrementCacheHit() {
	if s.metrics != nil {
		s.metrics.IncrementCacheHit()
	}
}

func (s *Service) incrementCacheMiss() {
	if s.metrics != nil {
		s.metrics.IncrementCacheMiss()
	}
}

func toValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid company")
	}
	return err
}

func wrapStoreErr(err error, notFoundMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
}

func dedupe(cnpjs []id.CNPJ) []id.CNPJ {
	seen := make(map[id.CNPJ]bool, len(cnpjs))
	out := make([]id.CNPJ, 0, len(cnpjs))
	for _, c := range cnpjs {
		if c.IsZero() || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func chunk(cnpjs []id.CNPJ, size int) [][]id.CNPJ {
	var out [][]id.CNPJ
	for len(cnpjs) > size {
		out = append(out, cnpjs[:size])
		cnpjs = cnpjs[size:]
	}
	if len(cnpjs) > 0 {
		out = append(out, cnpjs)
	}
	return out
}

type noopCache struct{}

func (noopCache) Get(context.Context, id.CNPJ) (*models.Company, bool) { return nil, false }

func (noopCache) GetMany(context.Context, []id.CNPJ) map[id.CNPJ]*models.Company {
	return map[id.CNPJ]*models.Company{}
}

func (noopCache) Set(context.Context, *models.Company) {}
