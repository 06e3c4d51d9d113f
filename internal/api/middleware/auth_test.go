package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func okHandler(t *testing.T, check func(*Claims)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(GetClaims(r.Context()))
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestAuth_ValidToken(t *testing.T) {
	auth := NewAuthenticator(testSecret, "controlpanel-api")
	token, err := auth.IssueToken("user-1", "org-1", "member", time.Hour)
	require.NoError(t, err)

	var got *Claims
	h := Auth(auth)(okHandler(t, func(c *Claims) { got = c }))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vps", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "org-1", got.OrgID)
	assert.Equal(t, "user-1", got.UserID())
	assert.False(t, got.IsAdmin())
}

func TestAuth_Rejections(t *testing.T) {
	auth := NewAuthenticator(testSecret, "controlpanel-api")
	expired, _ := auth.IssueToken("user-1", "org-1", "member", -time.Minute)
	otherIssuer, _ := NewAuthenticator(testSecret, "someone-else").IssueToken("user-1", "org-1", "member", time.Hour)
	wrongKey, _ := NewAuthenticator("ffffffffffffffffffffffffffffffff", "controlpanel-api").IssueToken("user-1", "org-1", "member", time.Hour)
	noOrg, _ := auth.IssueToken("user-1", "", "member", time.Hour)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "missing authorization header"},
		{"not bearer", "Basic abc", "invalid authorization format"},
		{"garbage", "Bearer abc.def.ghi", "invalid token"},
		{"expired", "Bearer " + expired, "token expired"},
		{"wrong issuer", "Bearer " + otherIssuer, "invalid token"},
		{"wrong key", "Bearer " + wrongKey, "invalid token"},
		{"no organization", "Bearer " + noOrg, "token missing organization or subject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Auth(auth)(okHandler(t, nil))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/vps", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.want, errorBody(t, rec))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(okHandler(t, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/providers", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(WithClaims(req.Context(), &Claims{OrgID: "org-1", Role: RoleMember}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(WithClaims(req.Context(), &Claims{OrgID: "org-1", Role: RoleAdmin}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
