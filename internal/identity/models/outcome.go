package models

import (
	"fmt"

	dErrors "fundops/pkg/domain-errors"
)

// OutcomeKind classifies a credential lookup.
type OutcomeKind string

const (
	OutcomeUnauthenticated            OutcomeKind = "unauthenticated"
	OutcomeAuthenticated              OutcomeKind = "authenticated"
	OutcomeAmbiguousRole              OutcomeKind = "ambiguous_role"
	OutcomeDuplicateIdentity          OutcomeKind = "duplicate_identity"
	OutcomeInternalInconsistency      OutcomeKind = "internal_inconsistency"
	OutcomeCriticalInvariantViolation OutcomeKind = "critical_invariant_violation"
)

// AuthOutcome is the result of resolving a credential pair.
//
// Identity is set only for OutcomeAuthenticated. Matches carries the raw
// hits for every other kind except OutcomeUnauthenticated.
type AuthOutcome struct {
	Kind     OutcomeKind
	Identity *Match
	Matches  []Match
}

func (o AuthOutcome) Authenticated() bool {
	return o.Kind == OutcomeAuthenticated && o.Identity != nil
}

// IsDataFault reports outcomes caused by corrupt server-side data.
func (o AuthOutcome) IsDataFault() bool {
	switch o.Kind {
	case OutcomeDuplicateIdentity, OutcomeInternalInconsistency, OutcomeCriticalInvariantViolation:
		return true
	default:
		return false
	}
}

// CandidateRoles lists the roles an ambiguous credential resolved to.
func (o AuthOutcome) CandidateRoles() []Role {
	if o.Kind != OutcomeAmbiguousRole {
		return nil
	}
	roles := make([]Role, 0, len(o.Matches))
	for _, m := range o.Matches {
		roles = append(roles, m.Role)
	}
	return roles
}

// MatchForRole picks the ambiguous candidate carrying role.
func (o AuthOutcome) MatchForRole(role Role) (*Match, bool) {
	if o.Kind != OutcomeAmbiguousRole {
		return nil, false
	}
	for i := range o.Matches {
		if o.Matches[i].Role == role {
			return &o.Matches[i], true
		}
	}
	return nil, false
}

// Err maps the outcome to a coded error. Data faults collapse to an opaque
// internal error; details stay in the logs.
func (o AuthOutcome) Err() error {
	switch o.Kind {
	case OutcomeAuthenticated:
		return nil
	case OutcomeUnauthenticated:
		return dErrors.New(dErrors.CodeUnauthenticated, "invalid email address or password")
	case OutcomeAmbiguousRole:
		return &AmbiguousRoleError{Roles: o.CandidateRoles()}
	case OutcomeDuplicateIdentity, OutcomeInternalInconsistency, OutcomeCriticalInvariantViolation:
		return dErrors.New(dErrors.CodeInternal, "unable to complete authentication")
	default:
		return dErrors.New(dErrors.CodeInternal, "unknown authentication outcome")
	}
}

// AmbiguousRoleError asks the caller to retry with one of Roles. It carries
// CodeAmbiguousRole through its chain.
type AmbiguousRoleError struct {
	Roles []Role
}

func (e *AmbiguousRoleError) Error() string {
	return fmt.Sprintf("%s: credentials match roles %v", dErrors.CodeAmbiguousRole, e.Roles)
}

func (e *AmbiguousRoleError) Unwrap() error {
	return dErrors.New(dErrors.CodeAmbiguousRole, "credentials match more than one role; select a role")
}
