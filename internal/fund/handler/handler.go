// Package handler exposes the fund lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fundops/internal/fund/models"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	"fundops/pkg/platform/httputil"
	request "fundops/pkg/platform/middleware/request"
)

// Service is the fund service surface used over HTTP.
type Service interface {
	CreateFund(ctx context.Context, req models.CreateFundRequest) (*models.Fund, error)
	AttachInvestor(ctx context.Context, req models.AttachInvestorRequest) (*models.Fund, error)
	AttachAdministrator(ctx context.Context, fundID id.FundID, adminID id.IdentityID) (*models.Fund, error)
	UpdateCommission(ctx context.Context, fundID id.FundID, commission models.Commission) (*models.Fund, error)
	ConcludeRaising(ctx context.Context, fundID id.FundID) (*models.Fund, error)
	ListFunds(ctx context.Context, phase *models.Phase) ([]*models.Fund, error)
	GetFund(ctx context.Context, fundID id.FundID) (*models.Fund, error)
	GetFundByName(ctx context.Context, name string) (*models.Fund, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterReads mounts the read-only fund routes.
func (h *Handler) RegisterReads(r chi.Router) {
	r.Get("/funds", h.HandleListFunds)
	r.Get("/funds/by-name/{name}", h.HandleGetFundByName)
	r.Get("/funds/{fundID}", h.HandleGetFund)
}

// RegisterWrites mounts the mutating fund routes. The caller applies the
// portfolio manager guard.
func (h *Handler) RegisterWrites(r chi.Router) {
	r.Post("/funds", h.HandleCreateFund)
	r.Post("/funds/{fundID}/investors", h.HandleAttachInvestor)
	r.Post("/funds/{fundID}/administrators", h.HandleAttachAdministrator)
	r.Put("/funds/{fundID}/commission", h.HandleUpdateCommission)
	r.Post("/funds/{fundID}/conclude", h.HandleConcludeRaising)
}

func (h *Handler) HandleCreateFund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createFundRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create fund request", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	admins, err := parseIdentityIDs(req.Administrators)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	fund, err := h.service.CreateFund(ctx, models.CreateFundRequest{
		FundName:       req.FundName,
		InvestmentFirm: req.InvestmentFirm,
		Administrators: admins,
		Commission:     req.Commission.toModel(),
		CapitalTarget:  req.CapitalTarget,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create fund", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fund)
}

func (h *Handler) HandleListFunds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var phase *models.Phase
	if raw := r.URL.Query().Get("phase"); raw != "" {
		parsed, err := models.ParsePhase(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		phase = &parsed
	}

	funds, err := h.service.ListFunds(ctx, phase)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list funds", err)
		return
	}
	if funds == nil {
		funds = []*models.Fund{}
	}
	httputil.WriteJSON(w, http.StatusOK, fundListResponse{Funds: funds})
}

func (h *Handler) HandleGetFund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fundID, err := id.ParseFundID(chi.URLParam(r, "fundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fund, err := h.service.GetFund(ctx, fundID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load fund", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fund)
}

func (h *Handler) HandleGetFundByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fund, err := h.service.GetFundByName(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load fund", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fund)
}

func (h *Handler) HandleAttachInvestor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fundID, err := id.ParseFundID(chi.URLParam(r, "fundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req attachInvestorRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	investorID, err := id.ParseIdentityID(req.InvestorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	fund, err := h.service.AttachInvestor(ctx, models.AttachInvestorRequest{
		FundID:     fundID,
		InvestorID: investorID,
		Amount:     req.Amount,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "failed to attach investor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fund)
}

func (h *Handler) HandleAttachAdministrator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fundID, err := id.ParseFundID(chi.URLParam(r, "fundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req attachAdministratorRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	adminID, err := id.ParseIdentityID(req.AdministratorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	fund, err := h.service.AttachAdministrator(ctx, fundID, adminID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to attach administrator", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fund)
}

func (h *Handler) HandleUpdateCommission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fundID, err := id.ParseFundID(chi.URLParam(r, "fundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req commissionRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	fund, err := h.service.UpdateCommission(ctx, fundID, req.toModel())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update commission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fund)
}

func (h *Handler) HandleConcludeRaising(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fundID, err := id.ParseFundID(chi.URLParam(r, "fundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fund, err := h.service.ConcludeRaising(ctx, fundID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to conclude raising", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fund)
}

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
