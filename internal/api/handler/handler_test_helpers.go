package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	mw "github.com/edvin/containerstacks/internal/api/middleware"
)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParams adds multiple chi URL parameters to the request context.
func withChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

// withMember injects member claims for testOrgID into the request context.
func withMember(r *http.Request) *http.Request {
	return withClaims(r, mw.RoleMember)
}

func withClaims(r *http.Request, role string) *http.Request {
	claims := &mw.Claims{OrgID: testOrgID, Role: role}
	claims.Subject = testUserID
	return r.WithContext(mw.WithClaims(r.Context(), claims))
}

const (
	testOrgID      = "5b0c7a4e-1f0e-4b8e-9a57-5d3f7c2a9e11"
	testUserID     = "user-1"
	testInstanceID = "0f5e6c2d-8a3b-4c1d-9e7f-2b4a6c8d0e13"
	testProviderID = "9d8c7b6a-5e4f-4a3b-8c2d-1e0f9a8b7c15"
)
