// Package handler exposes login and identity administration over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	"fundops/pkg/platform/httputil"
	request "fundops/pkg/platform/middleware/request"
	"fundops/pkg/requestcontext"
)

// Service is the identity service surface used over HTTP.
type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	CreateIdentity(ctx context.Context, req models.CreateIdentityRequest) (*models.Identity, error)
	GetIdentity(ctx context.Context, role models.Role, identityID id.IdentityID) (*models.Identity, error)
	SetActive(ctx context.Context, role models.Role, identityID id.IdentityID, active bool) (*models.Identity, error)
	UpdatePolicies(ctx context.Context, req models.PolicyUpdateRequest) (models.PolicySet, error)
	ListPortfolioManagers(ctx context.Context) ([]*models.Identity, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts routes that need no token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/login", h.HandleLogin)
}

// RegisterSelf mounts routes for any authenticated actor.
func (h *Handler) RegisterSelf(r chi.Router) {
	r.Get("/me", h.HandleMe)
}

// RegisterAdmin mounts identity administration routes. The caller applies
// the admin guard.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/identities", h.HandleCreateIdentity)
	r.Get("/identities/{role}/{identityID}", h.HandleGetIdentity)
	r.Post("/identities/{role}/{identityID}/policies", h.HandleUpdatePolicies)
	r.Post("/identities/{role}/{identityID}/deactivate", h.HandleDeactivate)
	r.Post("/identities/{role}/{identityID}/reactivate", h.HandleReactivate)
	r.Get("/portfolio-managers", h.HandleListPortfolioManagers)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req loginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid login request", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, models.LoginRequest{
		EmailAddress: req.EmailAddress,
		Password:     req.Password,
		Role:         models.Role(req.Role),
	})
	if err != nil {
		var ambiguous *models.AmbiguousRoleError
		if errors.As(err, &ambiguous) {
			httputil.WriteJSON(w, http.StatusConflict, ambiguousRoleResponse{
				Error:       string(dErrors.CodeAmbiguousRole),
				Description: "credentials match more than one role; retry with a role",
				Roles:       ambiguous.Roles,
			})
			return
		}
		h.writeServiceError(ctx, w, "login failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		Identity:    result.Identity,
		Role:        result.Identity.Role,
		IdentityID:  result.Identity.ID,
	})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := models.ParseRole(requestcontext.Role(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token role is not recognised"))
		return
	}
	ident, err := h.service.GetIdentity(ctx, role, requestcontext.IdentityID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load current identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ident)
}

func (h *Handler) HandleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createIdentityRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.CreateIdentity(ctx, models.CreateIdentityRequest{
		Role:         models.Role(req.Role),
		FirstName:    req.FirstName,
		SecondName:   req.SecondName,
		EmailAddress: req.EmailAddress,
		Password:     req.Password,
		Policies:     req.Policies.Set(),
	})
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, identityID, err := pathIdentity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ident, err := h.service.GetIdentity(ctx, role, identityID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ident)
}

func (h *Handler) HandleUpdatePolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, identityID, err := pathIdentity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updatePoliciesRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	set, err := h.service.UpdatePolicies(ctx, models.PolicyUpdateRequest{
		IdentityID: identityID,
		Role:       role,
		Policies:   req.Policies.Set(),
	})
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update policies", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policiesResponse{IdentityID: identityID, Role: role, Policies: set})
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	ctx := r.Context()
	role, identityID, err := pathIdentity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.service.SetActive(ctx, role, identityID, active)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to change identity status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleListPortfolioManagers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	managers, err := h.service.ListPortfolioManagers(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list portfolio managers", err)
		return
	}
	if managers == nil {
		managers = []*models.Identity{}
	}
	httputil.WriteJSON(w, http.StatusOK, identityListResponse{Identities: managers})
}

func pathIdentity(r *http.Request) (models.Role, id.IdentityID, error) {
	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		return "", id.IdentityID{}, err
	}
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		return "", id.IdentityID{}, err
	}
	return role, identityID, nil
}

// writeServiceError logs server-side faults at ERROR and client faults at
// WARN before writing the mapped response.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	if code, ok := dErrors.CodeOf(err); ok {
		status = httputil.StatusFor(code)
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	}
	httputil.WriteError(w, err)
}
