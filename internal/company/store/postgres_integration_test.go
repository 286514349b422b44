//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cnpjd/internal/company/models"
	"cnpjd/internal/company/store"
	id "cnpjd/pkg/domain"
	"cnpjd/pkg/platform/sentinel"
	txcontext "cnpjd/pkg/platform/tx"
	"cnpjd/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
	// Migrate is idempotent.
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "companies"))
}

func newTestCompany(cnpj string) *models.Company {
	c, err := models.NewCompany(uuid.New(), id.MustCNPJ(cnpj), "Acme Ltda", "Acme", time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		panic(err)
	}
	return c
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	c := newTestCompany("00.444.777/0001-45")
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByCNPJ(ctx, c.CNPJ)
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)
	s.True(c.CNPJ.Equal(found.CNPJ))
	s.Equal(c.LegalName, found.LegalName)
	s.Equal(c.TradeName, found.TradeName)
	s.WithinDuration(c.CreatedAt, found.CreatedAt, time.Millisecond)

	_, err = s.store.FindByCNPJ(ctx, id.MustCNPJ("11.022.233/3000-91"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentDuplicateCNPJ verifies that concurrent registrations of the
// same CNPJ result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentDuplicateCNPJ() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newTestCompany("11.222.333/0001-81"))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresStoreSuite) TestListByRootAndFindMany() {
	ctx := context.Background()
	head := newTestCompany("11.222.333/0001-81")
	branch := newTestCompany("11.222.333/0002-62")
	other := newTestCompany("00.444.777/0001-45")
	for _, c := range []*models.Company{branch, other, head} {
		s.Require().NoError(s.store.Create(ctx, c))
	}

	list, err := s.store.ListByRoot(ctx, 11222333)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.True(head.CNPJ.Equal(list[0].CNPJ))
	s.True(branch.CNPJ.Equal(list[1].CNPJ))

	many, err := s.store.FindMany(ctx, []id.CNPJ{branch.CNPJ, other.CNPJ, id.MustCNPJ("11.022.233/3000-91")})
	s.Require().NoError(err)
	s.Require().Len(many, 2)
	s.True(other.CNPJ.Equal(many[0].CNPJ))

	none, err := s.store.FindMany(ctx, nil)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *PostgresStoreSuite) TestRunInTx() {
	ctx := context.Background()

	s.Run("rolls back every write when fn fails", func() {
		c := newTestCompany("00.444.777/0001-45")
		err := s.store.RunInTx(ctx, func(txCtx context.Context) error {
			_, ok := txcontext.From(txCtx)
			s.True(ok)
			if err := s.store.Create(txCtx, c); err != nil {
				return err
			}
			return errors.New("abort")
		})
		s.Require().EqualError(err, "abort")

		_, err = s.store.FindByCNPJ(ctx, c.CNPJ)
		s.ErrorIs(err, sentinel.ErrNotFound, "rolled back insert must not be visible")
	})

	s.Run("commits reads and writes together", func() {
		head := newTestCompany("11.222.333/0001-81")
		s.Require().NoError(s.store.Create(ctx, head))

		err := s.store.RunInTx(ctx, func(txCtx context.Context) error {
			found, err := s.store.FindByCNPJ(txCtx, head.CNPJ)
			if err != nil {
				return err
			}
			branch, err := models.NewBranch(uuid.New(), found, 2, "", time.Now())
			if err != nil {
				return err
			}
			return s.store.Create(txCtx, branch)
		})
		s.Require().NoError(err)

		list, err := s.store.ListByRoot(ctx, head.Root())
		s.Require().NoError(err)
		s.Len(list, 2)
	})
}
