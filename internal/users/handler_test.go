package users

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetgrid/assetgrid/internal/rbac"
	"github.com/assetgrid/assetgrid/internal/shared"
	_ "github.com/assetgrid/assetgrid/testing"
)

type fakeUserRepo struct {
	users []User
}

func (f *fakeUserRepo) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	if offset >= len(f.users) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.users) {
		end = len(f.users)
	}
	return f.users[offset:end], nil
}

func (f *fakeUserRepo) CountUsers(ctx context.Context) (int, error) {
	return len(f.users), nil
}

type memoryAdminStore struct {
	roles       map[int64]rbac.Role
	assignments map[int64][]int64
}

func newMemoryAdminStore() *memoryAdminStore {
	return &memoryAdminStore{roles: make(map[int64]rbac.Role), assignments: make(map[int64][]int64)}
}

func (m *memoryAdminStore) RolesForSubject(ctx context.Context, subjectID int64) ([]rbac.Role, error) {
	var out []rbac.Role
	for _, roleID := range m.assignments[subjectID] {
		if role, ok := m.roles[roleID]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (m *memoryAdminStore) PermissionsForRole(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	return nil, nil
}

func (m *memoryAdminStore) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	out := make([]rbac.Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, role)
	}
	return out, nil
}

func (m *memoryAdminStore) GetRole(ctx context.Context, id int64) (rbac.Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (m *memoryAdminStore) CreateRole(ctx context.Context, name, description string) (rbac.Role, error) {
	role := rbac.Role{ID: int64(len(m.roles) + 1), Name: name, Description: description}
	m.roles[role.ID] = role
	return role, nil
}

func (m *memoryAdminStore) UpdateRole(ctx context.Context, id int64, name, description string) (rbac.Role, error) {
	return rbac.Role{}, shared.ErrNotFound
}

func (m *memoryAdminStore) DeleteRole(ctx context.Context, id int64) error {
	return shared.ErrNotFound
}

func (m *memoryAdminStore) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	return nil, nil
}

func (m *memoryAdminStore) EnsurePermission(ctx context.Context, name, module, action, description string) (rbac.Permission, error) {
	return rbac.Permission{Name: name, Module: module, Action: action}, nil
}

func (m *memoryAdminStore) ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return nil
}

func (m *memoryAdminStore) AssignRole(ctx context.Context, subjectID, roleID int64) error {
	m.assignments[subjectID] = append(m.assignments[subjectID], roleID)
	return nil
}

func (m *memoryAdminStore) RemoveRole(ctx context.Context, subjectID, roleID int64) error {
	kept := m.assignments[subjectID][:0]
	for _, existing := range m.assignments[subjectID] {
		if existing != roleID {
			kept = append(kept, existing)
		}
	}
	m.assignments[subjectID] = kept
	return nil
}

func newUserServer(t *testing.T, repo *fakeUserRepo, store *memoryAdminStore, perms ...string) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo), rbac.NewService(store), rbac.Middleware{})
	id := shared.NewIdentity(1, "admin", []string{"admin"}, perms)

	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), id)))
			})
		})
		handler.MountRoutes(r)
	})
	return r
}

func TestListUsersPaginated(t *testing.T) {
	repo := &fakeUserRepo{users: []User{
		{ID: 1, Username: "admin", Name: "Grid Administrator", IsActive: true},
		{ID: 2, Username: "itops", Name: "IT Operations", IsActive: true},
		{ID: 3, Username: "former", Name: "Offboarded", IsActive: false},
	}}
	mux := newUserServer(t, repo, newMemoryAdminStore(), shared.PermUsersRead)

	req := httptest.NewRequest(http.MethodGet, "/users/?page=1&perPage=2", nil)
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var envelope struct {
		Data []userView        `json:"data"`
		Meta shared.Pagination `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
	assert.Equal(t, 3, envelope.Meta.Total)
	assert.Equal(t, 2, envelope.Meta.TotalPages)
}

func TestListUsersForbidden(t *testing.T) {
	mux := newUserServer(t, &fakeUserRepo{}, newMemoryAdminStore(), shared.PermDevicesRead)

	req := httptest.NewRequest(http.MethodGet, "/users/", nil)
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestAssignRoleToUser(t *testing.T) {
	store := newMemoryAdminStore()
	role, err := store.CreateRole(context.Background(), "operator", "")
	require.NoError(t, err)

	mux := newUserServer(t, &fakeUserRepo{}, store, shared.PermUsersRead, shared.PermUsersManageRoles)

	body, _ := json.Marshal(map[string]any{"roleId": role.ID})
	req := httptest.NewRequest(http.MethodPost, "/users/7/roles/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, []int64{role.ID}, store.assignments[7])

	// The role listing reflects the assignment.
	req = httptest.NewRequest(http.MethodGet, "/users/7/roles/", nil)
	res = httptest.NewRecorder()
	mux.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "operator")
}

func TestAssignUnknownRole(t *testing.T) {
	mux := newUserServer(t, &fakeUserRepo{}, newMemoryAdminStore(), shared.PermUsersManageRoles)

	body, _ := json.Marshal(map[string]any{"roleId": 404})
	req := httptest.NewRequest(http.MethodPost, "/users/7/roles/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestRemoveRoleFromUser(t *testing.T) {
	store := newMemoryAdminStore()
	role, err := store.CreateRole(context.Background(), "operator", "")
	require.NoError(t, err)
	require.NoError(t, store.AssignRole(context.Background(), 7, role.ID))

	mux := newUserServer(t, &fakeUserRepo{}, store, shared.PermUsersManageRoles)

	req := httptest.NewRequest(http.MethodDelete, "/users/7/roles/1", nil)
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Empty(t, store.assignments[7])
}

func TestAssignRoleValidation(t *testing.T) {
	mux := newUserServer(t, &fakeUserRepo{}, newMemoryAdminStore(), shared.PermUsersManageRoles)

	req := httptest.NewRequest(http.MethodPost, "/users/7/roles/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	mux.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}
