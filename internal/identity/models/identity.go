package models

import (
	"strings"
	"time"

	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
)

// Identity is an administrator or investor record.
//
// Invariants:
//   - Role is RoleAdministrator or RoleInvestor
//   - EmailAddress is lowercase and unique within its role's class
//   - Policies is a subset of the catalog entry for Role
//   - Identities are never deleted; Active=false deactivates
type Identity struct {
	ID           id.IdentityID `json:"id"`
	FirstName    string        `json:"first_name"`
	SecondName   string        `json:"second_name"`
	EmailAddress string        `json:"email_address"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role"`
	Policies     PolicySet     `json:"policies"`
	Active       bool          `json:"active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (i *Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.SecondName)
}

func (i *Identity) HasPolicy(name string) bool {
	return i.Active && i.Policies.Contains(name)
}

// CanDeactivate checks the active -> inactive transition.
func (i *Identity) CanDeactivate() error {
	if !i.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "identity is already inactive")
	}
	return nil
}

func (i *Identity) ApplyDeactivation(now time.Time) {
	i.Active = false
	i.UpdatedAt = now
}

// CanReactivate checks the inactive -> active transition.
func (i *Identity) CanReactivate() error {
	if i.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "identity is already active")
	}
	return nil
}

func (i *Identity) ApplyReactivation(now time.Time) {
	i.Active = true
	i.UpdatedAt = now
}

// ApplyPolicies replaces the stored set with an already-filtered one.
func (i *Identity) ApplyPolicies(set PolicySet, now time.Time) {
	i.Policies = set
	i.UpdatedAt = now
}

// NewIdentity builds an active identity. Email is normalized to lowercase.
func NewIdentity(identityID id.IdentityID, role Role, firstName, secondName, email, passwordHash string, policies PolicySet, now time.Time) (*Identity, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeUnknownRole, "unknown role: "+string(role))
	}
	email = NormalizeEmail(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email address cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email address is malformed")
	}
	firstName = strings.TrimSpace(firstName)
	secondName = strings.TrimSpace(secondName)
	if firstName == "" || secondName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "first and second name are required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	if policies == nil {
		policies = PolicySet{}
	}
	return &Identity{
		ID:           identityID,
		FirstName:    firstName,
		SecondName:   secondName,
		EmailAddress: email,
		PasswordHash: passwordHash,
		Role:         role,
		Policies:     policies,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail trims and lowercases an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Match is one credential hit returned by the identity store, tagged with
// the class it was found in.
type Match struct {
	ID           id.IdentityID `json:"id"`
	Role         Role          `json:"role"`
	Policies     PolicySet     `json:"policies"`
	Active       bool          `json:"active"`
	EmailAddress string        `json:"email_address"`
	FirstName    string        `json:"first_name"`
	SecondName   string        `json:"second_name"`
}

// MatchFromIdentity projects a stored identity onto a Match.
func MatchFromIdentity(i *Identity) Match {
	return Match{
		ID:           i.ID,
		Role:         i.Role,
		Policies:     i.Policies,
		Active:       i.Active,
		EmailAddress: i.EmailAddress,
		FirstName:    i.FirstName,
		SecondName:   i.SecondName,
	}
}
