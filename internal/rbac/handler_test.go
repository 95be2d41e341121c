package rbac

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetgrid/assetgrid/internal/shared"
	_ "github.com/assetgrid/assetgrid/testing"
)

func newAdminServer(t *testing.T, store *mockStore, perms ...string) *chi.Mux {
	t.Helper()
	handler := NewHandler(nil, NewService(store), Middleware{})
	id := shared.NewIdentity(1, "admin", []string{"admin"}, perms)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), id)))
		})
	})
	handler.MountRoutes(r)
	return r
}

func adminJSON(t *testing.T, mux *chi.Mux, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)
	return res
}

func TestCreateRoleEndpoint(t *testing.T) {
	store := newMockStore()
	mux := newAdminServer(t, store, shared.PermRolesCreate)

	res := adminJSON(t, mux, http.MethodPost, "/roles/", map[string]string{
		"name":        "operator",
		"description": "Manage hardware",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	var envelope struct {
		Data roleView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envelope))
	assert.Equal(t, "operator", envelope.Data.Name)
}

func TestCreateRoleForbiddenWithoutPermission(t *testing.T) {
	store := newMockStore()
	mux := newAdminServer(t, store, shared.PermRolesRead)

	res := adminJSON(t, mux, http.MethodPost, "/roles/", map[string]string{"name": "operator"})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Empty(t, store.roles)
}

func TestCreateRoleConflict(t *testing.T) {
	store := newMockStore()
	_, err := store.CreateRole(context.Background(), "operator", "")
	require.NoError(t, err)
	mux := newAdminServer(t, store, shared.PermRolesCreate)

	res := adminJSON(t, mux, http.MethodPost, "/roles/", map[string]string{"name": "operator"})
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestGetRoleEndpointNotFound(t *testing.T) {
	mux := newAdminServer(t, newMockStore(), shared.PermRolesRead)
	res := adminJSON(t, mux, http.MethodGet, "/roles/404", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestSetRolePermissionsEndpoint(t *testing.T) {
	store := newMockStore()
	_, err := store.CreateRole(context.Background(), "operator", "")
	require.NoError(t, err)
	perm, err := store.EnsurePermission(context.Background(), "devices.read", "devices", "read", "")
	require.NoError(t, err)

	mux := newAdminServer(t, store, shared.PermRolesRead, shared.PermRolesGrant)

	res := adminJSON(t, mux, http.MethodPut, "/roles/1/permissions", map[string]any{
		"permissionIds": []int64{perm.ID},
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = adminJSON(t, mux, http.MethodGet, "/roles/1/permissions", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "devices.read")
}

func TestListPermissionsRequiresPermission(t *testing.T) {
	mux := newAdminServer(t, newMockStore(), shared.PermRolesRead)
	res := adminJSON(t, mux, http.MethodGet, "/permissions", nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	var envelope struct {
		MissingPermissions []string `json:"missingPermissions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envelope))
	assert.Equal(t, []string{shared.PermPermissionsRead}, envelope.MissingPermissions)
}

func TestInvalidRoleID(t *testing.T) {
	mux := newAdminServer(t, newMockStore(), shared.PermRolesRead)
	res := adminJSON(t, mux, http.MethodGet, "/roles/zero", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}
