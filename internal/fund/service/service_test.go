package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fundops/internal/fund/metrics"
	"fundops/internal/fund/models"
	"fundops/internal/fund/service/mocks"
	"fundops/internal/fund/store"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	audit "fundops/pkg/platform/audit"
	"fundops/pkg/platform/audit/publishers/compliance"
	auditmemory "fundops/pkg/platform/audit/store/memory"
	"fundops/pkg/platform/tx"
	"fundops/pkg/requestcontext"
)

// =============================================================================
// Fund Lifecycle Test Suite
// =============================================================================
// Justification for unit tests: the raising -> active transition and the
// commission and capital invariants are enforced here. The identity
// directory is mocked so unknown and inactive ids are easy to produce.

type FundServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	directory *mocks.MockIdentityDirectory
	store     *store.InMemory
	audit     *auditmemory.InMemoryStore
	metrics   *metrics.Metrics
	service   *Service
	ctx       context.Context
	now       time.Time
	admin     id.IdentityID
	investor  id.IdentityID
}

func TestFundServiceSuite(t *testing.T) {
	suite.Run(t, new(FundServiceSuite))
}

func (s *FundServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.directory = mocks.NewMockIdentityDirectory(s.ctrl)
	s.store = store.NewInMemory()
	s.audit = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.admin = id.NewIdentityID()
	s.investor = id.NewIdentityID()

	s.service = New(s.store, tx.NewInMemoryTx(time.Second), s.directory,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithComplianceAuditor(compliance.New(s.audit)),
	)

	s.directory.EXPECT().IsActiveAdministrator(gomock.Any(), s.admin).Return(true, nil).AnyTimes()
	s.directory.EXPECT().IsActiveInvestor(gomock.Any(), s.investor).Return(true, nil).AnyTimes()
}

func (s *FundServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func ptr(v float64) *float64 { return &v }

func (s *FundServiceSuite) createFund(name string) *models.Fund {
	f, err := s.service.CreateFund(s.ctx, models.CreateFundRequest{
		FundName:       name,
		InvestmentFirm: "Acme Capital",
		Administrators: []id.IdentityID{s.admin},
		Commission:     models.Commission{Type: models.CommissionPercentual, Value: 2},
	})
	s.Require().NoError(err)
	return f
}

func (s *FundServiceSuite) TestCreateFund() {
	s.Run("opens in raising with no investors", func() {
		f := s.createFund("Growth I")
		s.Equal(models.PhaseRaising, f.Phase)
		s.Empty(f.Investors)
		s.Empty(f.CapitalDistribution)
		s.Equal([]id.IdentityID{s.admin}, f.Administrators)
		s.Equal(s.now, f.CreatedAt)

		events, err := s.audit.ListByAction(s.ctx, audit.EventFundCreated)
		s.Require().NoError(err)
		s.Len(events, 1)
	})

	s.Run("percentual commission of 150 is invalid", func() {
		_, err := s.service.CreateFund(s.ctx, models.CreateFundRequest{
			FundName:   "Too Greedy",
			Commission: models.Commission{Type: models.CommissionPercentual, Value: 150},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCommission))
	})

	s.Run("unknown administrator", func() {
		stranger := id.NewIdentityID()
		s.directory.EXPECT().IsActiveAdministrator(gomock.Any(), stranger).Return(false, nil)

		_, err := s.service.CreateFund(s.ctx, models.CreateFundRequest{
			FundName:       "Orphan",
			Administrators: []id.IdentityID{s.admin, stranger},
			Commission:     models.Commission{Type: models.CommissionFixed, Value: 100},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownAdministrator))

		_, err = s.service.GetFundByName(s.ctx, "Orphan")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("duplicate name conflicts", func() {
		s.createFund("Twin")
		_, err := s.service.CreateFund(s.ctx, models.CreateFundRequest{
			FundName:   "Twin",
			Commission: models.Commission{Type: models.CommissionFixed, Value: 1},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("directory failure is a persistence error", func() {
		broken := id.NewIdentityID()
		s.directory.EXPECT().IsActiveAdministrator(gomock.Any(), broken).Return(false, errors.New("connection refused"))

		_, err := s.service.CreateFund(s.ctx, models.CreateFundRequest{
			FundName:       "Unlucky",
			Administrators: []id.IdentityID{broken},
			Commission:     models.Commission{Type: models.CommissionFixed, Value: 1},
		})
		s.True(dErrors.HasCode(err, dErrors.CodePersistence))
	})
}

func (s *FundServiceSuite) TestAttachInvestor() {
	f := s.createFund("Growth II")

	s.Run("adds investor and capital", func() {
		updated, err := s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{
			FundID: f.ID, InvestorID: s.investor, Amount: ptr(1000),
		})
		s.Require().NoError(err)
		s.Equal([]id.IdentityID{s.investor}, updated.Investors)
		s.InDelta(1000, updated.CapitalDistribution[s.investor], 1e-9)
	})

	s.Run("repeat attachment tops up without duplicating", func() {
		updated, err := s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{
			FundID: f.ID, InvestorID: s.investor, Amount: ptr(500),
		})
		s.Require().NoError(err)
		s.Len(updated.Investors, 1)
		s.InDelta(1500, updated.TotalCapital(), 1e-9)
		s.Equal(1500.0, testutil.ToFloat64(s.metrics.CapitalCommitted))
	})

	s.Run("without amount only records membership", func() {
		other := id.NewIdentityID()
		s.directory.EXPECT().IsActiveInvestor(gomock.Any(), other).Return(true, nil)
		updated, err := s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{FundID: f.ID, InvestorID: other})
		s.Require().NoError(err)
		s.Len(updated.Investors, 2)
		_, has := updated.CapitalDistribution[other]
		s.False(has)
	})

	s.Run("unknown investor", func() {
		stranger := id.NewIdentityID()
		s.directory.EXPECT().IsActiveInvestor(gomock.Any(), stranger).Return(false, nil)
		_, err := s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{FundID: f.ID, InvestorID: stranger})
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownInvestor))
	})

	s.Run("unknown fund", func() {
		_, err := s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{FundID: id.NewFundID(), InvestorID: s.investor})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("non-positive amount", func() {
		_, err := s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{
			FundID: f.ID, InvestorID: s.investor, Amount: ptr(-5),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *FundServiceSuite) TestConcludeRaising() {
	f := s.createFund("Growth III")

	active, err := s.service.ConcludeRaising(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(models.PhaseActive, active.Phase)

	_, err = s.service.ConcludeRaising(s.ctx, f.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyActive))

	_, err = s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{FundID: f.ID, InvestorID: s.investor, Amount: ptr(10)})
	s.True(dErrors.HasCode(err, dErrors.CodeFundNotRaising))

	_, err = s.service.AttachAdministrator(s.ctx, f.ID, s.admin)
	s.True(dErrors.HasCode(err, dErrors.CodeFundNotRaising))

	_, err = s.service.UpdateCommission(s.ctx, f.ID, models.Commission{Type: models.CommissionFixed, Value: 1})
	s.True(dErrors.HasCode(err, dErrors.CodeFundNotRaising))

	stored, err := s.service.GetFund(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Empty(stored.Investors)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Rejections.WithLabelValues("attach_investor", string(dErrors.CodeFundNotRaising))))
}

func (s *FundServiceSuite) TestUpdateCommission() {
	f := s.createFund("Fees")

	updated, err := s.service.UpdateCommission(s.ctx, f.ID, models.Commission{Type: models.CommissionFixed, Value: 25000})
	s.Require().NoError(err)
	s.Equal(models.CommissionFixed, updated.Commission.Type)

	_, err = s.service.UpdateCommission(s.ctx, f.ID, models.Commission{Type: models.CommissionPercentual, Value: 101})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCommission))

	stored, err := s.service.GetFund(s.ctx, f.ID)
	s.Require().NoError(err)
	s.InDelta(25000, stored.Commission.Value, 1e-9)
}

func (s *FundServiceSuite) TestAttachAdministrator() {
	f := s.createFund("Admins")
	second := id.NewIdentityID()
	s.directory.EXPECT().IsActiveAdministrator(gomock.Any(), second).Return(true, nil)

	updated, err := s.service.AttachAdministrator(s.ctx, f.ID, second)
	s.Require().NoError(err)
	s.ElementsMatch([]id.IdentityID{s.admin, second}, updated.Administrators)

	inactive := id.NewIdentityID()
	s.directory.EXPECT().IsActiveAdministrator(gomock.Any(), inactive).Return(false, nil)
	_, err = s.service.AttachAdministrator(s.ctx, f.ID, inactive)
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownAdministrator))
}

func (s *FundServiceSuite) TestListFunds() {
	a := s.createFund("Alpha")
	s.createFund("Beta")
	_, err := s.service.ConcludeRaising(s.ctx, a.ID)
	s.Require().NoError(err)

	all, err := s.service.ListFunds(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(all, 2)

	active := models.PhaseActive
	onlyActive, err := s.service.ListFunds(s.ctx, &active)
	s.Require().NoError(err)
	s.Require().Len(onlyActive, 1)
	s.Equal(a.ID, onlyActive[0].ID)

	bogus := models.Phase("closed")
	_, err = s.service.ListFunds(s.ctx, &bogus)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *FundServiceSuite) TestCapitalTargetEnforcement() {
	svc := New(s.store, tx.NewInMemoryTx(time.Second), s.directory,
		WithPolicy(models.Policy{EnforceCapitalTarget: true}))
	f, err := svc.CreateFund(s.ctx, models.CreateFundRequest{
		FundName:      "Capped",
		Commission:    models.Commission{Type: models.CommissionFixed, Value: 0},
		CapitalTarget: ptr(1000),
	})
	s.Require().NoError(err)

	_, err = svc.AttachInvestor(s.ctx, models.AttachInvestorRequest{FundID: f.ID, InvestorID: s.investor, Amount: ptr(800)})
	s.Require().NoError(err)
	_, err = svc.AttachInvestor(s.ctx, models.AttachInvestorRequest{FundID: f.ID, InvestorID: s.investor, Amount: ptr(300)})
	s.True(dErrors.HasCode(err, dErrors.CodeCapitalExceeded))

	stored, err := svc.GetFund(s.ctx, f.ID)
	s.Require().NoError(err)
	s.InDelta(800, stored.TotalCapital(), 1e-9)
}

type failingAuditor struct{ err error }

func (a failingAuditor) Emit(context.Context, audit.ComplianceEvent) error { return a.err }

func (s *FundServiceSuite) TestComplianceFailureLeavesNoChange() {
	existing := s.createFund("Existing")
	sinkDown := errors.New("kafka unavailable")
	svc := New(s.store, tx.NewInMemoryTx(time.Second), s.directory,
		WithComplianceAuditor(failingAuditor{err: sinkDown}))

	s.Run("create fund is not stored", func() {
		_, err := svc.CreateFund(s.ctx, models.CreateFundRequest{
			FundName:       "Unaudited",
			Administrators: []id.IdentityID{s.admin},
			Commission:     models.Commission{Type: models.CommissionFixed, Value: 10},
		})
		s.True(dErrors.HasCode(err, dErrors.CodePersistence), "got %v", err)

		_, err = s.service.GetFundByName(s.ctx, "Unaudited")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("attach investor is not stored", func() {
		_, err := svc.AttachInvestor(s.ctx, models.AttachInvestorRequest{
			FundID: existing.ID, InvestorID: s.investor, Amount: ptr(100),
		})
		s.True(dErrors.HasCode(err, dErrors.CodePersistence), "got %v", err)

		stored, err := s.service.GetFund(s.ctx, existing.ID)
		s.Require().NoError(err)
		s.Empty(stored.Investors)
		s.Zero(stored.TotalCapital())
	})

	s.Run("duplicate name is a conflict without an audit record", func() {
		before, err := s.audit.ListByAction(s.ctx, audit.EventFundCreated)
		s.Require().NoError(err)

		_, err = s.service.CreateFund(s.ctx, models.CreateFundRequest{
			FundName:   "Existing",
			Commission: models.Commission{Type: models.CommissionFixed, Value: 1},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		after, err := s.audit.ListByAction(s.ctx, audit.EventFundCreated)
		s.Require().NoError(err)
		s.Len(after, len(before))
	})
}

func (s *FundServiceSuite) TestCapitalOverflowRejected() {
	f := s.createFund("Overflow")
	_, err := s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{
		FundID: f.ID, InvestorID: s.investor, Amount: ptr(1.7e308),
	})
	s.Require().NoError(err)

	_, err = s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{
		FundID: f.ID, InvestorID: s.investor, Amount: ptr(1.7e308),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)

	stored, err := s.service.GetFund(s.ctx, f.ID)
	s.Require().NoError(err)
	s.InDelta(1.7e308, stored.TotalCapital(), 1e300)
}

func (s *FundServiceSuite) TestConcurrentAttachAndConclude() {
	f := s.createFund("Race")

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.service.AttachInvestor(s.ctx, models.AttachInvestorRequest{
				FundID: f.ID, InvestorID: s.investor, Amount: ptr(1),
			})
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.service.ConcludeRaising(s.ctx, f.ID)
	}()
	wg.Wait()

	stored, err := s.service.GetFund(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(models.PhaseActive, stored.Phase)
	attached := testutil.ToFloat64(s.metrics.InvestorsAttached)
	s.InDelta(attached, stored.TotalCapital(), 1e-9)
}

// A store failure inside the transaction surfaces as a persistence error.
func TestFundService_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	fundStore := mocks.NewMockFundStore(ctrl)
	directory := mocks.NewMockIdentityDirectory(ctrl)
	svc := New(fundStore, tx.NewInMemoryTx(time.Second), directory)

	fundID := id.NewFundID()
	fundStore.EXPECT().FindByIDForUpdate(gomock.Any(), fundID).Return(nil, errors.New("connection reset"))

	_, err := svc.ConcludeRaising(context.Background(), fundID)
	if !dErrors.HasCode(err, dErrors.CodePersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	fundStore.EXPECT().List(gomock.Any(), gomock.Nil()).Return(nil, context.DeadlineExceeded)
	_, err = svc.ListFunds(context.Background(), nil)
	if !dErrors.HasCode(err, dErrors.CodeTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}
