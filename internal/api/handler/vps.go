package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/containerstacks/internal/api/request"
	"github.com/edvin/containerstacks/internal/api/response"
	"github.com/edvin/containerstacks/internal/core"
	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/provider"
)

// VpsService is the orchestration behind the VPS routes.
type VpsService interface {
	List(ctx context.Context, orgID string) ([]core.InstanceView, error)
	Get(ctx context.Context, orgID, id string) (*core.InstanceDetail, error)
	Create(ctx context.Context, in core.CreateVpsInput) (*model.VpsInstance, error)
	PerformAction(ctx context.Context, orgID, userID, id string, action provider.Action) (*model.VpsInstance, error)
	Delete(ctx context.Context, orgID, userID, id string) error
	Plans(ctx context.Context) ([]core.PlanView, error)
}

// VPS handles VPS lifecycle endpoints.
type VPS struct {
	svc VpsService
}

// NewVPS creates a new VPS handler.
func NewVPS(svc VpsService) *VPS {
	return &VPS{svc: svc}
}

// List godoc
//
//	@Summary		List VPS instances for the caller's organization
//	@Tags			VPS
//	@Security		BearerAuth
//	@Success		200 {object} response.ListResponse{items=[]core.InstanceView}
//	@Failure		401 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/vps [get]
func (h *VPS) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	views, err := h.svc.List(r.Context(), claims.OrgID)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteList(w, views)
}

// Get godoc
//
//	@Summary		Get a VPS instance with live provider details
//	@Description	Metrics, transfer and backups are null when their lookup failed.
//	@Tags			VPS
//	@Security		BearerAuth
//	@Param			id path string true "Instance ID"
//	@Success		200 {object} core.InstanceDetail
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/{id} [get]
func (h *VPS) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.svc.Get(r.Context(), claims.OrgID, id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, detail)
}

// Create godoc
//
//	@Summary		Provision a VPS instance
//	@Tags			VPS
//	@Security		BearerAuth
//	@Param			body body request.CreateVPS true "Instance details"
//	@Success		201 {object} CreateVPSResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps [post]
func (h *VPS) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req request.CreateVPS
	if err := request.Decode(r, &req); err != nil {
		request.WriteDecodeError(w, err)
		return
	}

	inst, err := h.svc.Create(r.Context(), core.CreateVpsInput{
		OrganizationID:  claims.OrgID,
		UserID:          claims.UserID(),
		ProviderID:      req.ProviderID,
		Label:           req.Label,
		Type:            req.Type,
		Region:          req.Region,
		Image:           req.Image,
		RootPassword:    req.RootPassword,
		SSHKeys:         req.SSHKeys,
		Backups:         req.Backups,
		AppSlug:         req.AppSlug,
		StackScriptID:   req.StackScriptID,
		StackScriptData: req.StackScriptData,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, CreateVPSResponse{Instance: inst})
}

// Action godoc
//
//	@Summary		Run a power action on a VPS instance
//	@Tags			VPS
//	@Security		BearerAuth
//	@Param			id path string true "Instance ID"
//	@Param			action path string true "Power action" Enums(boot, shutdown, reboot, power_cycle)
//	@Success		200 {object} StatusResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/{id}/{action} [post]
func (h *VPS) Action(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	action, err := provider.ParseAction(chi.URLParam(r, "action"))
	if err != nil || action == provider.ActionDelete {
		response.WriteError(w, http.StatusBadRequest, "unsupported action")
		return
	}

	inst, err := h.svc.PerformAction(r.Context(), claims.OrgID, claims.UserID(), id, action)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, StatusResponse{Status: inst.Status})
}

// Delete godoc
//
//	@Summary		Delete a VPS instance
//	@Description	An instance already gone upstream is still removed locally.
//	@Tags			VPS
//	@Security		BearerAuth
//	@Param			id path string true "Instance ID"
//	@Success		200 {object} DeletedResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/vps/{id} [delete]
func (h *VPS) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), claims.OrgID, claims.UserID(), id); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, DeletedResponse{Deleted: true})
}

// Plans godoc
//
//	@Summary		List internal VPS plans
//	@Tags			VPS
//	@Security		BearerAuth
//	@Success		200 {object} response.ListResponse{items=[]core.PlanView}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/vps/plans [get]
func (h *VPS) Plans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.Plans(r.Context())
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteList(w, plans)
}
