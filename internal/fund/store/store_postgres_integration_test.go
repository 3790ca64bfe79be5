//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fundops/internal/fund/models"
	"fundops/internal/fund/store"
	id "fundops/pkg/domain"
	"fundops/pkg/platform/tx"
	"fundops/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	tx       *tx.PostgresTx
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.tx = tx.NewPostgresTx(s.postgres.DB, 5*time.Second)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "funds"))
}

func newFund(name string, target *float64) *models.Fund {
	f, err := models.NewFund(id.NewFundID(), name, "Acme Capital", []id.IdentityID{id.NewIdentityID()},
		models.Commission{Type: models.CommissionPercentual, Value: 2.5}, target,
		time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		panic(err)
	}
	return f
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	target := 5000.0
	f := newFund("Growth I", &target)
	inv := id.NewIdentityID()
	amount := 1250.5
	f.ApplyAttachInvestor(inv, &amount, f.CreatedAt)
	s.Require().NoError(s.store.Create(ctx, f))

	loaded, err := s.store.FindByID(ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(f.FundName, loaded.FundName)
	s.Equal(f.Administrators, loaded.Administrators)
	s.Equal([]id.IdentityID{inv}, loaded.Investors)
	s.InDelta(1250.5, loaded.CapitalDistribution[inv], 1e-9)
	s.Equal(models.CommissionPercentual, loaded.Commission.Type)
	s.Require().NotNil(loaded.CapitalTarget)
	s.InDelta(5000, *loaded.CapitalTarget, 1e-9)
	s.Equal(models.PhaseRaising, loaded.Phase)
	s.True(f.CreatedAt.Equal(loaded.CreatedAt))

	byName, err := s.store.FindByName(ctx, "Growth I")
	s.Require().NoError(err)
	s.Equal(f.ID, byName.ID)
}

func (s *PostgresStoreSuite) TestUniqueName() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newFund("Alpha", nil)))
	s.ErrorIs(s.store.Create(ctx, newFund("Alpha", nil)), store.ErrNameTaken)
}

func (s *PostgresStoreSuite) TestPercentualRangeEnforcedByDatabase() {
	ctx := context.Background()
	f := newFund("Bad", nil)
	f.Commission.Value = 150
	s.Error(s.store.Create(ctx, f))
}

func (s *PostgresStoreSuite) TestListByPhase() {
	ctx := context.Background()
	a := newFund("Alpha", nil)
	b := newFund("Beta", nil)
	b.ApplyConcludeRaising(b.CreatedAt)
	s.Require().NoError(s.store.Create(ctx, a))
	s.Require().NoError(s.store.Create(ctx, b))

	all, err := s.store.List(ctx, nil)
	s.Require().NoError(err)
	s.Len(all, 2)

	active := models.PhaseActive
	onlyActive, err := s.store.List(ctx, &active)
	s.Require().NoError(err)
	s.Require().Len(onlyActive, 1)
	s.Equal(b.ID, onlyActive[0].ID)
}

// Concurrent top-ups on one fund must both land when each runs as a
// locked read-modify-write.
func (s *PostgresStoreSuite) TestConcurrentTopUps() {
	ctx := context.Background()
	f := newFund("Contended", nil)
	s.Require().NoError(s.store.Create(ctx, f))
	inv := id.NewIdentityID()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
				loaded, err := s.store.FindByIDForUpdate(txCtx, f.ID)
				if err != nil {
					return err
				}
				amount := 10.0
				loaded.ApplyAttachInvestor(inv, &amount, time.Now())
				return s.store.Update(txCtx, loaded)
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	loaded, err := s.store.FindByID(ctx, f.ID)
	s.Require().NoError(err)
	s.Len(loaded.Investors, 1)
	s.InDelta(80, loaded.CapitalDistribution[inv], 1e-9)
}
