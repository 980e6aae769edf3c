package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-pg/models"
	"hostel-pg/utils"
)

type fakeLoader map[string]*models.Tenant

func (f fakeLoader) LoadSession(_ context.Context, uid string) (*models.Tenant, error) {
	if t, ok := f[uid]; ok {
		return t, nil
	}
	return nil, errors.New("not found")
}

func protected(tokens TokenValidator, loader SessionLoader, roles ...models.Role) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := SessionFrom(r.Context())
		w.Header().Set("X-Status", string(s.Status))
		w.WriteHeader(http.StatusOK)
	})
	return JWTAuth(tokens, loader, zerolog.Nop())(RequireRole(roles...)(final))
}

func call(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/tenants", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRoles(t *testing.T) {
	tokens, err := utils.NewTokenIssuer("test-secret-that-is-long-enough!", time.Hour)
	require.NoError(t, err)
	loader := fakeLoader{
		"admin": {UID: "admin", Role: models.RoleAdmin, Status: models.StatusActive},
		"user":  {UID: "user", Role: models.RoleUser, Status: models.StatusPending},
	}
	adminOnly := protected(tokens, loader, models.RoleAdmin)

	assert.Equal(t, http.StatusUnauthorized, call(adminOnly, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(adminOnly, "garbage").Code)

	adminToken, err := tokens.Generate("admin", "a@example.com", "admin")
	require.NoError(t, err)
	rec := call(adminOnly, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Active", rec.Header().Get("X-Status"))

	userToken, err := tokens.Generate("user", "u@example.com", "user")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(adminOnly, userToken).Code)
	assert.Equal(t, http.StatusOK, call(protected(tokens, loader, models.RoleUser), userToken).Code)

	// a token claiming admin does not help once the store says otherwise
	forged, err := tokens.Generate("user", "u@example.com", "admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(adminOnly, forged).Code)

	gone, err := tokens.Generate("deleted", "d@example.com", "admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(adminOnly, gone).Code)

	reset, err := tokens.GenerateReset("admin", "a@example.com", "stamp")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(adminOnly, reset).Code)
}

func TestRequireRoleWithoutSession(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not be reached")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc")
	tok, err := bearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	req.Header.Set("Authorization", "Basic abc")
	_, err = bearerToken(req)
	assert.Error(t, err)
}
