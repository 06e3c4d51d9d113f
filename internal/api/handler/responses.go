package handler

import "github.com/edvin/containerstacks/internal/model"

// CreateVPSResponse is returned by POST /vps.
type CreateVPSResponse struct {
	Instance *model.VpsInstance `json:"instance"`
}

// StatusResponse carries the instance status after a power action.
type StatusResponse struct {
	Status string `json:"status"`
}

type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

type ValidResponse struct {
	Valid bool `json:"valid"`
}
