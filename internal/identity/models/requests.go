package models

import (
	"time"

	id "fundops/pkg/domain"
)

// PolicyUpdateRequest asks for policies to be added to an identity.
// Policies is already normalized to a set at the transport boundary.
type PolicyUpdateRequest struct {
	IdentityID id.IdentityID
	Role       Role
	Policies   PolicySet
}

// CreateIdentityRequest registers an administrator or investor.
type CreateIdentityRequest struct {
	Role         Role
	FirstName    string
	SecondName   string
	EmailAddress string
	Password     string
	Policies     PolicySet
}

// LoginRequest carries credentials plus an optional role hint used when the
// same credentials exist in both classes.
type LoginRequest struct {
	EmailAddress string
	Password     string
	Role         Role
}

// LoginResult is a successful login.
type LoginResult struct {
	Identity  Match
	Token     string
	ExpiresAt time.Time
}
