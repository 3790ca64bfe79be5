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

const minPasswordLength = 8

// CreateIdentity registers an administrator or investor. Initial policies
// pass through the catalog like any later update.
func (s *Service) CreateIdentity(ctx context.Context, req models.CreateIdentityRequest) (created *models.Identity, err error) {
	ctx, span := tracing.StartSpan(ctx, "identity.create", "role", string(req.Role))
	defer func() { tracing.End(span, err) }()

	if !req.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeUnknownRole, "unknown role: "+string(req.Role))
	}
	if len(req.Password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	effective, dropped, err := s.catalog.Filter(req.Role, req.Policies)
	if err != nil {
		return nil, err
	}
	if dropped.Len() > 0 && s.logger != nil {
		s.logger.WarnContext(ctx, "dropped initial policies not in catalog",
			"role", string(req.Role),
			"dropped", dropped.Sorted(),
		)
	}

	ident, err := models.NewIdentity(id.NewIdentityID(), req.Role, req.FirstName, req.SecondName,
		req.EmailAddress, s.hasher.Digest(req.Password), effective, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	txCtx := tx.WithLockKey(ctx, string(ident.Role)+":"+ident.EmailAddress)
	err = s.tx.RunInTx(txCtx, func(txCtx context.Context) error {
		taken, err := s.store.EmailRegistered(txCtx, ident.Role, ident.EmailAddress)
		if err != nil {
			return err
		}
		if taken {
			return errEmailTaken()
		}
		// Audit before the write: the in-memory runner cannot undo a write.
		if err := s.emitCompliance(txCtx, audit.EventIdentityCreated, ident.ID.String(),
			string(ident.Role)+":"+strings.Join(ident.Policies.Sorted(), ",")); err != nil {
			return err
		}
		if err := s.store.Create(txCtx, ident); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return errEmailTaken()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, tx.AsPersistence(err, "failed to create identity")
	}

	if s.metrics != nil {
		s.metrics.IncIdentityCreated(string(ident.Role))
	}
	s.logAudit(ctx, audit.EventIdentityCreated,
		"identity_id", ident.ID.String(),
		"role", string(ident.Role),
	)
	return ident, nil
}

// GetIdentity returns one identity of role.
func (s *Service) GetIdentity(ctx context.Context, role models.Role, identityID id.IdentityID) (*models.Identity, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeUnknownRole, "unknown role: "+string(role))
	}
	readCtx, cancel := tx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	ident, err := s.store.FindByID(readCtx, role, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, tx.AsPersistence(err, "failed to load identity")
	}
	return ident, nil
}

// SetActive deactivates or reactivates an identity. Identities are never
// deleted.
func (s *Service) SetActive(ctx context.Context, role models.Role, identityID id.IdentityID, active bool) (*models.Identity, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeUnknownRole, "unknown role: "+string(role))
	}

	var updated *models.Identity
	txCtx := tx.WithLockKey(ctx, identityID.String())
	err := s.tx.RunInTx(txCtx, func(txCtx context.Context) error {
		ident, err := s.store.FindByIDForUpdate(txCtx, role, identityID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "identity not found")
			}
			return err
		}

		now := requestcontext.Now(txCtx)
		if active {
			if err := ident.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
			}
			ident.ApplyReactivation(now)
		} else {
			if err := ident.CanDeactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
			}
			ident.ApplyDeactivation(now)
		}
		if err := s.store.SetActive(txCtx, role, identityID, ident.Active, now); err != nil {
			return err
		}
		updated = ident
		return nil
	})
	if err != nil {
		return nil, tx.AsPersistence(err, "failed to update identity status")
	}

	event := audit.EventIdentityDeactivated
	if active {
		event = audit.EventIdentityReactivated
	}
	s.logAudit(ctx, event, "identity_id", identityID.String(), "role", string(role))
	s.emitSecurity(ctx, event, identityID.String(), requestcontext.IdentityID(ctx), string(role), audit.SeverityInfo)
	return updated, nil
}

// IsActiveAdministrator reports whether identityID is an active
// administrator. It joins the caller's transaction when there is one.
func (s *Service) IsActiveAdministrator(ctx context.Context, identityID id.IdentityID) (bool, error) {
	return s.isActive(ctx, models.RoleAdministrator, identityID)
}

// IsActiveInvestor reports whether identityID is an active investor.
func (s *Service) IsActiveInvestor(ctx context.Context, identityID id.IdentityID) (bool, error) {
	return s.isActive(ctx, models.RoleInvestor, identityID)
}

func (s *Service) isActive(ctx context.Context, role models.Role, identityID id.IdentityID) (bool, error) {
	ident, err := s.store.FindByID(ctx, role, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return ident.Active, nil
}

func errEmailTaken() error {
	return dErrors.New(dErrors.CodeConflict, "email address already registered for this role")
}
