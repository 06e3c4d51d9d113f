package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/containerstacks/internal/api/middleware"
	"github.com/edvin/containerstacks/internal/api/request"
	"github.com/edvin/containerstacks/internal/api/response"
)

// requireClaims returns the caller's claims or writes a 401.
func requireClaims(w http.ResponseWriter, r *http.Request) (*mw.Claims, bool) {
	claims := mw.GetClaims(r.Context())
	if claims == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing claims")
		return nil, false
	}
	return claims, true
}

// urlID reads a required chi URL parameter or writes a 400.
func urlID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, err := request.RequireID(chi.URLParam(r, name))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}
