package handler

import (
	"context"
	"net/http"

	"github.com/edvin/containerstacks/internal/api/request"
	"github.com/edvin/containerstacks/internal/api/response"
	"github.com/edvin/containerstacks/internal/core"
	"github.com/edvin/containerstacks/internal/model"
)

// ProviderAdmin manages provider accounts.
type ProviderAdmin interface {
	List(ctx context.Context) ([]model.ServiceProvider, error)
	Create(ctx context.Context, in core.ProviderInput) (*model.ServiceProvider, error)
	Update(ctx context.Context, id string, patch core.ProviderPatch) (*model.ServiceProvider, error)
}

// AdminProvider handles provider account administration.
type AdminProvider struct {
	svc ProviderAdmin
}

// NewAdminProvider creates a new AdminProvider handler.
func NewAdminProvider(svc ProviderAdmin) *AdminProvider {
	return &AdminProvider{svc: svc}
}

// List godoc
//
//	@Summary		List provider accounts
//	@Tags			Admin
//	@Security		BearerAuth
//	@Success		200 {object} response.ListResponse{items=[]model.ServiceProvider}
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/admin/providers [get]
func (h *AdminProvider) List(w http.ResponseWriter, r *http.Request) {
	providers, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteList(w, providers)
}

// Create godoc
//
//	@Summary		Register a provider account
//	@Description	The API key is stored encrypted and never returned.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Param			body body request.CreateProvider true "Provider details"
//	@Success		201 {object} model.ServiceProvider
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		422 {object} response.ErrorResponse
//	@Router			/admin/providers [post]
func (h *AdminProvider) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateProvider
	if err := request.Decode(r, &req); err != nil {
		request.WriteDecodeError(w, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.svc.Create(r.Context(), core.ProviderInput{
		Name:          req.Name,
		Type:          req.Type,
		APIKey:        req.APIKey,
		Configuration: []byte(req.Configuration),
		Active:        active,
		Validate:      req.Validate,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, p)
}

// Update godoc
//
//	@Summary		Update a provider account
//	@Tags			Admin
//	@Security		BearerAuth
//	@Param			id path string true "Provider ID"
//	@Param			body body request.UpdateProvider true "Fields to change"
//	@Success		200 {object} model.ServiceProvider
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		422 {object} response.ErrorResponse
//	@Router			/admin/providers/{id} [patch]
func (h *AdminProvider) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req request.UpdateProvider
	if err := request.Decode(r, &req); err != nil {
		request.WriteDecodeError(w, err)
		return
	}

	p, err := h.svc.Update(r.Context(), id, core.ProviderPatch{
		Name:          req.Name,
		APIKey:        req.APIKey,
		Configuration: []byte(req.Configuration),
		Active:        req.Active,
		Validate:      req.Validate,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, p)
}
