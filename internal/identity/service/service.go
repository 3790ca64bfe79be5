// Package service resolves login credentials and manages identity policies.
package service

import (
	"context"
	"log/slog"
	"time"

	"fundops/internal/identity/credential"
	"fundops/internal/identity/metrics"
	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
	audit "fundops/pkg/platform/audit"
	"fundops/pkg/platform/tx"
	"fundops/pkg/requestcontext"
)

// IdentityStore persists both identity classes.
type IdentityStore interface {
	FindMatches(ctx context.Context, email, passwordHash string) ([]models.Match, error)
	Create(ctx context.Context, identity *models.Identity) error
	EmailRegistered(ctx context.Context, role models.Role, email string) (bool, error)
	FindByID(ctx context.Context, role models.Role, identityID id.IdentityID) (*models.Identity, error)
	FindByIDForUpdate(ctx context.Context, role models.Role, identityID id.IdentityID) (*models.Identity, error)
	UpdatePolicySet(ctx context.Context, role models.Role, identityID id.IdentityID, set models.PolicySet, now time.Time) error
	SetActive(ctx context.Context, role models.Role, identityID id.IdentityID, active bool, now time.Time) error
	ListByPolicy(ctx context.Context, role models.Role, policy string, activeOnly bool) ([]*models.Identity, error)
}

// PolicyCatalog constrains which policies a role may hold.
type PolicyCatalog interface {
	Filter(role models.Role, requested models.PolicySet) (effective, dropped models.PolicySet, err error)
}

// TokenIssuer mints the bearer token returned by Login.
type TokenIssuer interface {
	Issue(match models.Match, now time.Time) (string, time.Time, error)
}

// LoginGuard throttles repeated failed logins per email address.
type LoginGuard interface {
	Check(ctx context.Context, key string) error
	Fail(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string)
}

// ComplianceAuditor must persist the event or fail the operation.
type ComplianceAuditor interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// SecurityAuditor records authentication events on a best-effort basis.
type SecurityAuditor interface {
	Emit(ctx context.Context, event audit.SecurityEvent)
}

// Service orchestrates identity resolution, login and policy updates.
type Service struct {
	store        IdentityStore
	tx           tx.Runner
	catalog      PolicyCatalog
	hasher       credential.Hasher
	tokens       TokenIssuer
	guard        LoginGuard
	compliance   ComplianceAuditor
	security     SecurityAuditor
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

func WithTokenIssuer(issuer TokenIssuer) Option {
	return func(s *Service) {
		s.tokens = issuer
	}
}

func WithLoginGuard(guard LoginGuard) Option {
	return func(s *Service) {
		s.guard = guard
	}
}

func WithComplianceAuditor(a ComplianceAuditor) Option {
	return func(s *Service) {
		s.compliance = a
	}
}

func WithSecurityAuditor(a SecurityAuditor) Option {
	return func(s *Service) {
		s.security = a
	}
}

// WithStoreTimeout bounds reads made outside a transaction.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = d
	}
}

// New constructs a Service.
func New(store IdentityStore, runner tx.Runner, catalog PolicyCatalog, hasher credential.Hasher, opts ...Option) *Service {
	s := &Service{
		store:        store,
		tx:           runner,
		catalog:      catalog,
		hasher:       hasher,
		storeTimeout: tx.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
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

// emitCompliance runs inside the caller's transaction so a failed audit
// write rolls the change back.
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

func (s *Service) emitSecurity(ctx context.Context, event audit.AuditEvent, subject string, actor id.IdentityID, reason string, severity audit.Severity) {
	if s.security == nil {
		return
	}
	s.security.Emit(ctx, audit.SecurityEvent{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   actor,
		Subject:   subject,
		Action:    event,
		Reason:    reason,
		IP:        requestcontext.ClientIP(ctx),
		Device:    requestcontext.DeviceInfo(ctx).String(),
		RequestID: requestcontext.RequestID(ctx),
		Severity:  severity,
	})
}
