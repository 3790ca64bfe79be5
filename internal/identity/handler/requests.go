package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
)

// PolicyList accepts either a single policy name or a list of names.
type PolicyList []string

func (p *PolicyList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = PolicyList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("policies must be a string or a list of strings")
	}
	*p = many
	return nil
}

// Set normalizes the list into a PolicySet.
func (p PolicyList) Set() models.PolicySet {
	return models.NewPolicySet(p...)
}

type loginRequest struct {
	EmailAddress string `json:"email_address" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,max=256"`
	Role         string `json:"role" validate:"omitempty,oneof=administrator investor"`
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Identity    models.Match  `json:"identity"`
	Role        models.Role   `json:"role"`
	IdentityID  id.IdentityID `json:"identity_id"`
}

type ambiguousRoleResponse struct {
	Error       string        `json:"error"`
	Description string        `json:"error_description"`
	Roles       []models.Role `json:"roles"`
}

type createIdentityRequest struct {
	Role         string     `json:"role" validate:"required,oneof=administrator investor"`
	FirstName    string     `json:"first_name" validate:"required,max=100"`
	SecondName   string     `json:"second_name" validate:"required,max=100"`
	EmailAddress string     `json:"email_address" validate:"required,email,max=255"`
	Password     string     `json:"password" validate:"required,min=8,max=256"`
	Policies     PolicyList `json:"policies"`
}

type updatePoliciesRequest struct {
	Policies PolicyList `json:"policies"`
}

type policiesResponse struct {
	IdentityID id.IdentityID    `json:"identity_id"`
	Role       models.Role      `json:"role"`
	Policies   models.PolicySet `json:"policies"`
}

type identityListResponse struct {
	Identities []*models.Identity `json:"identities"`
}
