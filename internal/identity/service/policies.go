package service

import (
	"context"
	"errors"
	"strings"

	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	audit "fundops/pkg/platform/audit"
	"fundops/pkg/platform/sentinel"
	"fundops/pkg/platform/tracing"
	"fundops/pkg/platform/tx"
	"fundops/pkg/requestcontext"
)

// UpdatePolicies adds the catalog-allowed part of the requested policies to
// the identity's existing set and returns the full resulting set. Requested
// names outside the catalog are dropped with a warning. Policies are never
// removed through this path, so repeating a request is a no-op.
func (s *Service) UpdatePolicies(ctx context.Context, req models.PolicyUpdateRequest) (result models.PolicySet, err error) {
	ctx, span := tracing.StartSpan(ctx, "identity.update_policies", "role", string(req.Role))
	defer func() { tracing.End(span, err) }()

	if !req.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeUnknownRole, "unknown role: "+string(req.Role))
	}
	if req.IdentityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity id is required")
	}

	effective, dropped, err := s.catalog.Filter(req.Role, req.Policies)
	if err != nil {
		return nil, err
	}
	if dropped.Len() > 0 && s.logger != nil {
		s.logger.WarnContext(ctx, "dropped policies not in catalog",
			"identity_id", req.IdentityID.String(),
			"role", string(req.Role),
			"dropped", dropped.Sorted(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	txCtx := tx.WithLockKey(ctx, req.IdentityID.String())
	err = s.tx.RunInTx(txCtx, func(txCtx context.Context) error {
		current, err := s.store.FindByIDForUpdate(txCtx, req.Role, req.IdentityID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "identity not found")
			}
			return err
		}

		next := current.Policies.Union(effective)
		if err := s.emitCompliance(txCtx, audit.EventPoliciesUpdated, req.IdentityID.String(), strings.Join(next.Sorted(), ",")); err != nil {
			return err
		}
		if !next.Equal(current.Policies) {
			if err := s.store.UpdatePolicySet(txCtx, req.Role, req.IdentityID, next, requestcontext.Now(txCtx)); err != nil {
				return err
			}
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, tx.AsPersistence(err, "failed to update policies")
	}

	if s.metrics != nil {
		s.metrics.ObservePolicyUpdate(dropped.Len())
	}
	s.logAudit(ctx, audit.EventPoliciesUpdated,
		"identity_id", req.IdentityID.String(),
		"role", string(req.Role),
		"policies", result.Sorted(),
	)
	return result, nil
}

// HasPolicy reads the identity live from the store. Unknown or inactive
// identities hold no policies.
func (s *Service) HasPolicy(ctx context.Context, role string, identityID id.IdentityID, policy string) (bool, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return false, nil
	}
	readCtx, cancel := tx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	ident, err := s.store.FindByID(readCtx, r, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, tx.AsPersistence(err, "failed to load identity")
	}
	return ident.HasPolicy(policy), nil
}

// ListPortfolioManagers returns active administrators holding full
// portfolio management access.
func (s *Service) ListPortfolioManagers(ctx context.Context) ([]*models.Identity, error) {
	readCtx, cancel := tx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	managers, err := s.store.ListByPolicy(readCtx, models.RoleAdministrator, models.PolicyPortfolioManagerFullAccess, true)
	if err != nil {
		return nil, tx.AsPersistence(err, "failed to list portfolio managers")
	}
	return managers, nil
}
