package audit

import (
	"context"
	"time"

	id "fundops/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: identity
	// creation, permission grants, fund membership and phase changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication outcomes, lockouts and
	// data-integrity faults in the identity store.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is the transport-agnostic audit record written to every store.
type Event struct {
	ID        id.AuditEventID
	Category  EventCategory
	Timestamp time.Time
	// ActorID is the identity that performed the action (nil for anonymous logins).
	ActorID id.IdentityID
	// Subject is the entity acted on: an identity id, fund id or email digest.
	Subject   string
	Action    string
	Decision  string
	Reason    string
	Severity  Severity
	IP        string
	Device    string
	RequestID string
}

type AuditEvent string

const (
	// Identity events
	EventIdentityCreated     AuditEvent = "identity_created"
	EventIdentityDeactivated AuditEvent = "identity_deactivated"
	EventIdentityReactivated AuditEvent = "identity_reactivated"
	EventPoliciesUpdated     AuditEvent = "policies_updated"

	// Authentication events
	EventLoginSucceeded       AuditEvent = "login_succeeded"
	EventAuthFailed           AuditEvent = "auth_failed"
	EventAmbiguousRole        AuditEvent = "ambiguous_role"
	EventIdentityIntegrity    AuditEvent = "identity_integrity_fault"
	EventAuthLockoutTriggered AuditEvent = "auth_lockout_triggered"

	// Fund events
	EventFundCreated           AuditEvent = "fund_created"
	EventFundInvestorAttached  AuditEvent = "fund_investor_attached"
	EventFundAdminAttached     AuditEvent = "fund_administrator_attached"
	EventFundCommissionUpdated AuditEvent = "fund_commission_updated"
	EventFundRaisingConcluded  AuditEvent = "fund_raising_concluded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventIdentityCreated:       CategoryCompliance,
	EventPoliciesUpdated:       CategoryCompliance,
	EventFundCreated:           CategoryCompliance,
	EventFundInvestorAttached:  CategoryCompliance,
	EventFundAdminAttached:     CategoryCompliance,
	EventFundCommissionUpdated: CategoryCompliance,
	EventFundRaisingConcluded:  CategoryCompliance,

	EventIdentityDeactivated:  CategorySecurity,
	EventIdentityReactivated:  CategorySecurity,
	EventAuthFailed:           CategorySecurity,
	EventAmbiguousRole:        CategorySecurity,
	EventIdentityIntegrity:    CategorySecurity,
	EventAuthLockoutTriggered: CategorySecurity,

	EventLoginSucceeded: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// ComplianceEvent captures regulatory-significant actions requiring guaranteed persistence.
type ComplianceEvent struct {
	Timestamp time.Time
	ActorID   id.IdentityID
	Subject   string
	Action    AuditEvent
	Decision  string
	RequestID string
}

// ToEvent converts to the stored Event shape.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:  CategoryCompliance,
		Timestamp: e.Timestamp,
		ActorID:   e.ActorID,
		Subject:   e.Subject,
		Action:    string(e.Action),
		Decision:  e.Decision,
		RequestID: e.RequestID,
	}
}

// SecurityEvent captures authentication outcomes and integrity faults.
type SecurityEvent struct {
	Timestamp time.Time
	ActorID   id.IdentityID
	Subject   string
	Action    AuditEvent
	Reason    string
	IP        string
	Device    string
	RequestID string
	Severity  Severity
}

func (e SecurityEvent) ToEvent() Event {
	return Event{
		Category:  e.Action.Category(),
		Timestamp: e.Timestamp,
		ActorID:   e.ActorID,
		Subject:   e.Subject,
		Action:    string(e.Action),
		Reason:    e.Reason,
		Severity:  e.Severity,
		IP:        e.IP,
		Device:    e.Device,
		RequestID: e.RequestID,
	}
}
