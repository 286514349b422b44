package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Cache,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cnpjd/internal/audit"
	companymetrics "cnpjd/internal/company/metrics"
	"cnpjd/internal/company/models"
	"cnpjd/internal/company/service/mocks"
	"cnpjd/internal/company/store"
	id "cnpjd/pkg/domain"
	dErrors "cnpjd/pkg/domain-errors"
	"cnpjd/pkg/platform/sentinel"
	"cnpjd/pkg/requestcontext"
)

var (
	headCNPJ   = id.MustCNPJ("11.222.333/0001-81")
	branchCNPJ = id.MustCNPJ("11.222.333/0002-62")
	otherCNPJ  = id.MustCNPJ("00.444.777/0001-45")
)

type CompanyServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	mockCache *mocks.MockCache
	mockAudit *mocks.MockAuditPublisher
	metrics   *companymetrics.Metrics
	service   *Service
	ctx       context.Context
	now       time.Time
}

func TestCompanyServiceSuite(t *testing.T) {
	suite.Run(t, new(CompanyServiceSuite))
}

func (s *CompanyServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockCache = mocks.NewMockCache(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = companymetrics.New(prometheus.NewRegistry())
	s.now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	var err error
	s.service, err = New(s.mockStore,
		WithCache(s.mockCache),
		WithAuditPublisher(s.mockAudit),
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
}

func (s *CompanyServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

// expectTx runs the transaction body inline and reports its ctx to the
// store calls it makes.
func (s *CompanyServiceSuite) expectTx() *gomock.Call {
	return s.mockStore.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(context.WithValue(ctx, txMarker{}, true))
		})
}

type txMarker struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txMarker{}).(bool)
	return v
}

func (s *CompanyServiceSuite) company(cnpj id.CNPJ) *models.Company {
	c, err := models.NewCompany(uuid.New(), cnpj, "Acme Ltda", "Acme", s.now)
	s.Require().NoError(err)
	return c
}

func (s *CompanyServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.ErrorContains(err, "company store is required")
	})

	s.Run("defaults to a no-op cache", func() {
		svc, err := New(s.mockStore)
		s.Require().NoError(err)
		s.IsType(noopCache{}, svc.cache)
	})
}

func (s *CompanyServiceSuite) TestRegister() {
	s.Run("stores, caches and audits a new company", func() {
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockCache.EXPECT().Set(gomock.Any(), gomock.Any())
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(audit.ActionCompanyRegistered, e.Action)
				s.Equal(headCNPJ.Short(), e.Subject)
				return nil
			})

		c, err := s.service.Register(s.ctx, headCNPJ, "Acme Ltda", "Acme")
		s.Require().NoError(err)
		s.Equal(headCNPJ, c.CNPJ)
		s.Equal(s.now, c.CreatedAt)
		s.InDelta(1, testutil.ToFloat64(s.metrics.Registered.WithLabelValues("head")), 0)
	})

	s.Run("invariant violations become validation errors", func() {
		_, err := s.service.Register(s.ctx, headCNPJ, "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Register(s.ctx, id.EmptyCNPJ, "Acme", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Register(s.ctx, headCNPJ, strings.Repeat("x", 151), "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate cnpj is a conflict and is audited", func() {
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("wrapped: %w", sentinel.ErrConflict))
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(audit.ActionCompanyRegistrationFail, e.Action)
				return nil
			})

		_, err := s.service.Register(s.ctx, headCNPJ, "Acme Ltda", "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("store failure is internal", func() {
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		_, err := s.service.Register(s.ctx, headCNPJ, "Acme Ltda", "")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("audit failure does not fail the registration", func() {
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockCache.EXPECT().Set(gomock.Any(), gomock.Any())
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("sink down"))

		_, err := s.service.Register(s.ctx, otherCNPJ, "Other SA", "")
		s.NoError(err)
	})
}

func (s *CompanyServiceSuite) TestRegisterBranch() {
	s.Run("derives the branch from the head office", func() {
		head := s.company(headCNPJ)
		gomock.InOrder(
			s.expectTx(),
			s.mockStore.EXPECT().FindByCNPJ(gomock.Any(), headCNPJ).DoAndReturn(
				func(ctx context.Context, _ id.CNPJ) (*models.Company, error) {
					s.True(inTx(ctx), "head office read joins the transaction")
					return head, nil
				}),
			s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, c *models.Company) error {
					s.True(inTx(ctx), "branch insert joins the transaction")
					s.Equal(branchCNPJ, c.CNPJ)
					return nil
				}),
			s.mockCache.EXPECT().Set(gomock.Any(), gomock.Any()).Do(
				func(ctx context.Context, _ *models.Company) {
					s.False(inTx(ctx), "cache is filled after commit")
				}),
		)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(audit.ActionBranchRegistered, e.Action)
				s.Equal(branchCNPJ.Short(), e.Subject)
				return nil
			})

		c, err := s.service.RegisterBranch(s.ctx, headCNPJ, 2, "Acme Norte")
		s.Require().NoError(err)
		s.Equal("Acme Ltda", c.LegalName)
		s.Equal("Acme Norte", c.TradeName)
		s.InDelta(1, testutil.ToFloat64(s.metrics.Registered.WithLabelValues("branch")), 0)
	})

	s.Run("failed insert rolls back and skips the cache", func() {
		s.expectTx()
		s.mockStore.EXPECT().FindByCNPJ(gomock.Any(), headCNPJ).Return(s.company(headCNPJ), nil)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

		_, err := s.service.RegisterBranch(s.ctx, headCNPJ, 2, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("commit failure is returned", func() {
		s.mockStore.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(errors.New("commit tx: serialization failure"))

		_, err := s.service.RegisterBranch(s.ctx, headCNPJ, 2, "")
		s.Require().Error(err)
		s.Equal(dErrors.CodeInternal, dErrors.CodeOf(err))
	})

	s.Run("unknown head office is not found", func() {
		s.expectTx()
		s.mockStore.EXPECT().FindByCNPJ(gomock.Any(), otherCNPJ).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.RegisterBranch(s.ctx, otherCNPJ, 2, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("branch parent is rejected", func() {
		s.expectTx()
		s.mockStore.EXPECT().FindByCNPJ(gomock.Any(), branchCNPJ).Return(s.company(branchCNPJ), nil)

		_, err := s.service.RegisterBranch(s.ctx, branchCNPJ, 3, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("out of range branch is rejected", func() {
		s.expectTx()
		s.mockStore.EXPECT().FindByCNPJ(gomock.Any(), headCNPJ).Return(s.company(headCNPJ), nil)

		_, err := s.service.RegisterBranch(s.ctx, headCNPJ, 10_000, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty head is rejected before touching the store", func() {
		_, err := s.service.RegisterBranch(s.ctx, id.EmptyCNPJ, 2, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CompanyServiceSuite) TestGet() {
	s.Run("cache hit skips the store", func() {
		c := s.company(headCNPJ)
		s.mockCache.EXPECT().Get(gomock.Any(), headCNPJ).Return(c, true)

		got, err := s.service.Get(s.ctx, headCNPJ)
		s.Require().NoError(err)
		s.Equal(c.ID, got.ID)
		s.InDelta(1, testutil.ToFloat64(s.metrics.CacheHits), 0)
	})

	s.Run("cache miss reads the store and fills the cache", func() {
		c := s.company(otherCNPJ)
		gomock.InOrder(
			s.mockCache.EXPECT().Get(gomock.Any(), otherCNPJ).Return(nil, false),
			s.mockStore.EXPECT().FindByCNPJ(gomock.Any(), otherCNPJ).Return(c, nil),
			s.mockCache.EXPECT().Set(gomock.Any(), c),
		)

		got, err := s.service.Get(s.ctx, otherCNPJ)
		s.Require().NoError(err)
		s.Equal(c.ID, got.ID)
	})

	s.Run("missing company is not found", func() {
		s.mockCache.EXPECT().Get(gomock.Any(), branchCNPJ).Return(nil, false)
		s.mockStore.EXPECT().FindByCNPJ(gomock.Any(), branchCNPJ).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Get(s.ctx, branchCNPJ)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CompanyServiceSuite) TestLookup() {
	s.Run("merges cache hits with one store query for misses", func() {
		head := s.company(headCNPJ)
		other := s.company(otherCNPJ)
		s.mockCache.EXPECT().GetMany(gomock.Any(), []id.CNPJ{headCNPJ, otherCNPJ, branchCNPJ}).
			Return(map[id.CNPJ]*models.Company{headCNPJ: head})
		s.mockStore.EXPECT().FindMany(gomock.Any(), []id.CNPJ{otherCNPJ, branchCNPJ}).
			Return([]*models.Company{other}, nil)
		s.mockCache.EXPECT().Set(gomock.Any(), other)

		got, err := s.service.Lookup(s.ctx, []id.CNPJ{headCNPJ, otherCNPJ, headCNPJ, branchCNPJ})
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(headCNPJ, got[0].CNPJ)
		s.Equal(otherCNPJ, got[1].CNPJ)
	})

	s.Run("store failure fails the lookup", func() {
		s.mockCache.EXPECT().GetMany(gomock.Any(), gomock.Any()).Return(map[id.CNPJ]*models.Company{})
		s.mockStore.EXPECT().FindMany(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		_, err := s.service.Lookup(s.ctx, []id.CNPJ{otherCNPJ})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *CompanyServiceSuite) TestListByRoot() {
	s.Run("rejects roots with more than 8 digits", func() {
		_, err := s.service.ListByRoot(s.ctx, 123_456_789)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("returns the store result", func() {
		list := []*models.Company{s.company(headCNPJ), s.company(branchCNPJ)}
		s.mockStore.EXPECT().ListByRoot(gomock.Any(), int64(11222333)).Return(list, nil)

		got, err := s.service.ListByRoot(s.ctx, 11222333)
		s.Require().NoError(err)
		s.Len(got, 2)
	})
}

// countingStore counts FindByCNPJ calls and blocks them until release is
// closed, so concurrent Get calls pile up behind one in-flight read.
type countingStore struct {
	*store.InMemory
	reads   atomic.Int32
	release chan struct{}
}

func (c *countingStore) FindByCNPJ(ctx context.Context, cnpj id.CNPJ) (*models.Company, error) {
	c.reads.Add(1)
	<-c.release
	return c.InMemory.FindByCNPJ(ctx, cnpj)
}

func TestGetCollapsesConcurrentMisses(t *testing.T) {
	st := &countingStore{InMemory: store.NewInMemory(), release: make(chan struct{})}
	c, err := models.NewCompany(uuid.New(), headCNPJ, "Acme Ltda", "", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.InMemory.Create(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	svc, err := New(st)
	if err != nil {
		t.Fatal(err)
	}

	const callers = 10
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			if _, err := svc.Get(context.Background(), headCNPJ); err != nil {
				t.Error(err)
			}
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(st.release)
	wg.Wait()

	if n := st.reads.Load(); n < 1 || n >= callers {
		t.Fatalf("expected concurrent misses to share reads, got %d reads for %d callers", n, callers)
	}
}

func TestLookupBatchesMisses(t *testing.T) {
	st := store.NewInMemory()
	var cnpjs []id.CNPJ
	for branch := 1; branch <= 60; branch++ {
		c, err := id.NewCNPJFromBaseInt(11222333*10_000 + int64(branch))
		if err != nil {
			t.Fatal(err)
		}
		cnpjs = append(cnpjs, c)
		if branch%2 == 0 {
			company, _ := models.NewCompany(uuid.New(), c, "Acme", "", time.Now())
			_ = st.Create(context.Background(), company)
		}
	}
	svc, err := New(st)
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Lookup(context.Background(), cnpjs)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 30 {
		t.Fatalf("expected 30 companies, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].CNPJ.Compare(got[i].CNPJ) >= 0 {
			t.Fatalf("expected input order to be preserved")
		}
	}
}
