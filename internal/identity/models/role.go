package models

import (
	"strings"

	dErrors "fundops/pkg/domain-errors"
)

// Role names the identity class a record belongs to. Values read from
// storage are kept as-is even when unrecognized so resolution can flag them.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleInvestor      Role = "investor"
)

// Roles lists every recognized role in a stable order.
func Roles() []Role {
	return []Role{RoleAdministrator, RoleInvestor}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleInvestor:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeUnknownRole, "unknown role: "+s)
	}
	return r, nil
}
