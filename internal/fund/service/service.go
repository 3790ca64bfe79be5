// Package service implements the fund lifecycle: funds open in the raising
// phase, collect investors and capital, and are concluded into the active
// phase.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fundops/internal/fund/metrics"
	"fundops/internal/fund/models"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	audit "fundops/pkg/platform/audit"
	"fundops/pkg/platform/sentinel"
	"fundops/pkg/platform/tx"
	"fundops/pkg/requestcontext"
)

// FundStore persists funds.
type FundStore interface {
	Create(ctx context.Context, fund *models.Fund) error
	FindByID(ctx context.Context, fundID id.FundID) (*models.Fund, error)
	FindByIDForUpdate(ctx context.Context, fundID id.FundID) (*models.Fund, error)
	FindByName(ctx context.Context, name string) (*models.Fund, error)
	Update(ctx context.Context, fund *models.Fund) error
	List(ctx context.Context, phase *models.Phase) ([]*models.Fund, error)
}

// IdentityDirectory answers whether an id is a live administrator or
// investor. Lookups run inside the fund transaction.
type IdentityDirectory interface {
	IsActiveAdministrator(ctx context.Context, identityID id.IdentityID) (bool, error)
	IsActiveInvestor(ctx context.Context, identityID id.IdentityID) (bool, error)
}

// ComplianceAuditor must persist the event or fail the operation.
type ComplianceAuditor interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

type Service struct {
	store        FundStore
	tx           tx.Runner
	directory    IdentityDirectory
	policy       models.Policy
	compliance   ComplianceAuditor
	logger       *slog.Logger
	metrics      *metrics.Metrics
	storeTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithComplianceAuditor(a ComplianceAuditor) Option {
	return func(s *Service) {
		s.compliance = a
	}
}

// WithPolicy sets deployment-level invariant switches.
func WithPolicy(p models.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = d
	}
}

func New(store FundStore, runner tx.Runner, directory IdentityDirectory, opts ...Option) *Service {
	s := &Service{
		store:        store,
		tx:           runner,
		directory:    directory,
		storeTimeout: tx.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadForUpdate maps a missing fund to CodeNotFound.
func (s *Service) loadForUpdate(ctx context.Context, fundID id.FundID) (*models.Fund, error) {
	fund, err := s.store.FindByIDForUpdate(ctx, fundID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "fund not found")
		}
		return nil, err
	}
	return fund, nil
}

// mutate runs fn against a locked fund, re-validates every invariant and
// writes the result, all inside one transaction.
func (s *Service) mutate(ctx context.Context, operation string, fundID id.FundID, fn func(txCtx context.Context, fund *models.Fund) error) (*models.Fund, error) {
	start := time.Now()
	var updated *models.Fund
	err := s.tx.RunInTx(tx.WithLockKey(ctx, fundID.String()), func(txCtx context.Context) error {
		fund, err := s.loadForUpdate(txCtx, fundID)
		if err != nil {
			return err
		}
		if err := fn(txCtx, fund); err != nil {
			return err
		}
		if err := fund.Validate(s.policy); err != nil {
			return err
		}
		if err := s.store.Update(txCtx, fund); err != nil {
			return err
		}
		updated = fund
		return nil
	})
	s.observe(ctx, operation, start, err)
	if err != nil {
		return nil, tx.AsPersistence(err, "failed to "+operation)
	}
	return updated, nil
}

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
	if err == nil {
		return
	}
	code, ok := dErrors.CodeOf(err)
	if !ok || code == dErrors.CodePersistence || code == dErrors.CodeTimeout || code == dErrors.CodeInternal {
		return
	}
	if s.metrics != nil {
		s.metrics.IncRejection(operation, string(code))
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "fund operation rejected",
			"operation", operation,
			"code", string(code),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
}

func (s *Service) emitCompliance(ctx context.Context, event audit.AuditEvent, subject, decision string) error {
	if s.compliance == nil {
		return nil
	}
	return s.compliance.Emit(ctx, audit.ComplianceEvent{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   requestcontext.IdentityID(ctx),
		Subject:   subject,
		Action:    event,
		Decision:  decision,
		RequestID: requestcontext.RequestID(ctx),
	})
}
