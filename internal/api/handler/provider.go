package handler

import (
	"context"
	"net/http"

	"github.com/edvin/containerstacks/internal/api/request"
	"github.com/edvin/containerstacks/internal/api/response"
	"github.com/edvin/containerstacks/internal/provider"
)

// ProviderCatalog serves live provider metadata and account SSH keys.
type ProviderCatalog interface {
	Plans(ctx context.Context, providerID string, refresh bool) ([]provider.Plan, error)
	Regions(ctx context.Context, providerID string, refresh bool) ([]provider.Region, error)
	Images(ctx context.Context, providerID string, refresh bool) ([]provider.Image, error)
	Apps(ctx context.Context, providerID string, refresh bool) ([]provider.App, error)
	Validate(ctx context.Context, providerID string) (bool, error)
	ListSSHKeys(ctx context.Context, providerID string) ([]provider.SSHKey, error)
	CreateSSHKey(ctx context.Context, providerID, label, publicKey string) (*provider.SSHKey, error)
	DeleteSSHKey(ctx context.Context, providerID, keyID string) error
}

// Provider handles live provider catalog and SSH key endpoints.
type Provider struct {
	svc ProviderCatalog
}

// NewProvider creates a new Provider handler.
func NewProvider(svc ProviderCatalog) *Provider {
	return &Provider{svc: svc}
}

// listing adapts one catalog listing to a GET handler honouring ?refresh=true.
func listing[T any](fetch func(ctx context.Context, providerID string, refresh bool) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		items, err := fetch(r.Context(), id, request.QueryBool(r, "refresh"))
		if err != nil {
			response.WriteServiceError(w, r, err)
			return
		}
		response.WriteList(w, items)
	}
}

// Plans godoc
//
//	@Summary		List plans offered by a provider
//	@Tags			Provider Catalog
//	@Security		BearerAuth
//	@Param			id path string true "Provider ID"
//	@Param			refresh query bool false "Bypass the catalog cache"
//	@Success		200 {object} response.ListResponse{items=[]provider.Plan}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/providers/{id}/plans [get]
func (h *Provider) Plans(w http.ResponseWriter, r *http.Request) { listing(h.svc.Plans)(w, r) }

// Regions godoc
//
//	@Summary		List regions offered by a provider
//	@Tags			Provider Catalog
//	@Security		BearerAuth
//	@Param			id path string true "Provider ID"
//	@Param			refresh query bool false "Bypass the catalog cache"
//	@Success		200 {object} response.ListResponse{items=[]provider.Region}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/providers/{id}/regions [get]
func (h *Provider) Regions(w http.ResponseWriter, r *http.Request) { listing(h.svc.Regions)(w, r) }

// Images godoc
//
//	@Summary		List images offered by a provider
//	@Tags			Provider Catalog
//	@Security		BearerAuth
//	@Param			id path string true "Provider ID"
//	@Param			refresh query bool false "Bypass the catalog cache"
//	@Success		200 {object} response.ListResponse{items=[]provider.Image}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/providers/{id}/images [get]
func (h *Provider) Images(w http.ResponseWriter, r *http.Request) { listing(h.svc.Images)(w, r) }

// Apps godoc
//
//	@Summary		List marketplace apps offered by a provider
//	@Tags			Provider Catalog
//	@Security		BearerAuth
//	@Param			id path string true "Provider ID"
//	@Param			refresh query bool false "Bypass the catalog cache"
//	@Success		200 {object} response.ListResponse{items=[]provider.App}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/providers/{id}/apps [get]
func (h *Provider) Apps(w http.ResponseWriter, r *http.Request) { listing(h.svc.Apps)(w, r) }

// Validate godoc
//
//	@Summary		Check a provider's credentials upstream
//	@Tags			Provider Catalog
//	@Security		BearerAuth
//	@Param			id path string true "Provider ID"
//	@Success		200 {object} ValidResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/vps/providers/{id}/validate [post]
func (h *Provider) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	valid, err := h.svc.Validate(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, ValidResponse{Valid: valid})
}

// ListSSHKeys godoc
//
//	@Summary		List SSH keys on the provider account
//	@Tags			Provider Catalog
//	@Security		BearerAuth
//	@Param			id path string true "Provider ID"
//	@Success		200 {object} response.ListResponse{items=[]provider.SSHKey}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/providers/{id}/ssh-keys [get]
func (h *Provider) ListSSHKeys(w http.ResponseWriter, r *http.Request) {
	listing(func(ctx context.Context, providerID string, _ bool) ([]provider.SSHKey, error) {
		return h.svc.ListSSHKeys(ctx, providerID)
	})(w, r)
}

// CreateSSHKey godoc
//
//	@Summary		Upload an SSH key to the provider account
//	@Tags			Provider Catalog
//	@Security		BearerAuth
//	@Param			id path string true "Provider ID"
//	@Param			body body request.CreateSSHKey true "SSH key details"
//	@Success		201 {object} provider.SSHKey
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/providers/{id}/ssh-keys [post]
func (h *Provider) CreateSSHKey(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req request.CreateSSHKey
	if err := request.Decode(r, &req); err != nil {
		request.WriteDecodeError(w, err)
		return
	}

	key, err := h.svc.CreateSSHKey(r.Context(), id, req.Label, req.PublicKey)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, key)
}

// DeleteSSHKey godoc
//
//	@Summary		Remove an SSH key from the provider account
//	@Tags			Provider Catalog
//	@Security		BearerAuth
//	@Param			id path string true "Provider ID"
//	@Param			keyID path string true "Provider SSH key ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/providers/{id}/ssh-keys/{keyID} [delete]
func (h *Provider) DeleteSSHKey(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	keyID, ok := urlID(w, r, "keyID")
	if !ok {
		return
	}

	if err := h.svc.DeleteSSHKey(r.Context(), id, keyID); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
