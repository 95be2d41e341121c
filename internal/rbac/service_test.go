package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetgrid/assetgrid/internal/shared"
)

type mockStore struct {
	roles       map[int64]Role
	grants      map[int64][]Permission
	assignments map[int64][]int64
	permissions map[string]Permission
	nextRoleID  int64
	nextPermID  int64

	// Error injection
	getRoleError    error
	createRoleError error
	replaceError    error
}

func newMockStore() *mockStore {
	return &mockStore{
		roles:       make(map[int64]Role),
		grants:      make(map[int64][]Permission),
		assignments: make(map[int64][]int64),
		permissions: make(map[string]Permission),
		nextRoleID:  1,
		nextPermID:  1,
	}
}

func (m *mockStore) RolesForSubject(ctx context.Context, subjectID int64) ([]Role, error) {
	var out []Role
	for _, roleID := range m.assignments[subjectID] {
		if role, ok := m.roles[roleID]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (m *mockStore) PermissionsForRole(ctx context.Context, roleID int64) ([]Permission, error) {
	return m.grants[roleID], nil
}

func (m *mockStore) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, role)
	}
	return out, nil
}

func (m *mockStore) GetRole(ctx context.Context, id int64) (Role, error) {
	if m.getRoleError != nil {
		return Role{}, m.getRoleError
	}
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (m *mockStore) CreateRole(ctx context.Context, name, description string) (Role, error) {
	if m.createRoleError != nil {
		return Role{}, m.createRoleError
	}
	for _, role := range m.roles {
		if role.Name == name {
			return Role{}, shared.ErrDuplicate
		}
	}
	role := Role{ID: m.nextRoleID, Name: name, Description: description, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.roles[role.ID] = role
	m.nextRoleID++
	return role, nil
}

func (m *mockStore) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	role.Name = name
	role.Description = description
	role.UpdatedAt = time.Now()
	m.roles[id] = role
	return role, nil
}

func (m *mockStore) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.roles, id)
	delete(m.grants, id)
	return nil
}

func (m *mockStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.permissions))
	for _, perm := range m.permissions {
		out = append(out, perm)
	}
	return out, nil
}

func (m *mockStore) EnsurePermission(ctx context.Context, name, module, action, description string) (Permission, error) {
	if perm, ok := m.permissions[name]; ok {
		return perm, nil
	}
	perm := Permission{ID: m.nextPermID, Name: name, Module: module, Action: action, Description: description}
	m.permissions[name] = perm
	m.nextPermID++
	return perm, nil
}

func (m *mockStore) ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if m.replaceError != nil {
		return m.replaceError
	}
	var grants []Permission
	for _, permID := range permissionIDs {
		for _, perm := range m.permissions {
			if perm.ID == permID {
				grants = append(grants, perm)
			}
		}
	}
	m.grants[roleID] = grants
	return nil
}

func (m *mockStore) AssignRole(ctx context.Context, subjectID, roleID int64) error {
	for _, existing := range m.assignments[subjectID] {
		if existing == roleID {
			return nil
		}
	}
	m.assignments[subjectID] = append(m.assignments[subjectID], roleID)
	return nil
}

func (m *mockStore) RemoveRole(ctx context.Context, subjectID, roleID int64) error {
	kept := m.assignments[subjectID][:0]
	for _, existing := range m.assignments[subjectID] {
		if existing != roleID {
			kept = append(kept, existing)
		}
	}
	m.assignments[subjectID] = kept
	return nil
}

var _ AdminStore = (*mockStore)(nil)

func TestCreateRoleTrimsAndValidates(t *testing.T) {
	store := newMockStore()
	service := NewService(store)
	ctx := context.Background()

	role, err := service.CreateRole(ctx, "  operator  ", " Manage hardware ")
	require.NoError(t, err)
	assert.Equal(t, "operator", role.Name)
	assert.Equal(t, "Manage hardware", role.Description)

	_, err = service.CreateRole(ctx, "   ", "blank")
	require.Error(t, err)
}

func TestCreateRoleDuplicate(t *testing.T) {
	store := newMockStore()
	service := NewService(store)
	ctx := context.Background()

	_, err := service.CreateRole(ctx, "operator", "")
	require.NoError(t, err)
	_, err = service.CreateRole(ctx, "operator", "")
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestGetRoleNotFound(t *testing.T) {
	service := NewService(newMockStore())
	_, err := service.GetRole(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRoleNotFound(t *testing.T) {
	service := NewService(newMockStore())
	err := service.DeleteRole(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsurePermissionDerivesModuleAction(t *testing.T) {
	store := newMockStore()
	service := NewService(store)

	perm, err := service.EnsurePermission(context.Background(), "Devices.Read", "View devices")
	require.NoError(t, err)
	assert.Equal(t, "devices.read", perm.Name)
	assert.Equal(t, "devices", perm.Module)
	assert.Equal(t, "read", perm.Action)
}

func TestSetRolePermissionsRequiresRole(t *testing.T) {
	store := newMockStore()
	service := NewService(store)
	ctx := context.Background()

	err := service.SetRolePermissions(ctx, 404, []int64{1})
	assert.ErrorIs(t, err, ErrNotFound)

	role, err := service.CreateRole(ctx, "operator", "")
	require.NoError(t, err)
	perm, err := service.EnsurePermission(ctx, "devices.read", "")
	require.NoError(t, err)

	require.NoError(t, service.SetRolePermissions(ctx, role.ID, []int64{perm.ID}))
	grants, err := service.RolePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "devices.read", grants[0].Name)
}

func TestAssignAndRemoveRole(t *testing.T) {
	store := newMockStore()
	service := NewService(store)
	ctx := context.Background()

	role, err := service.CreateRole(ctx, "viewer", "")
	require.NoError(t, err)

	require.NoError(t, service.AssignRole(ctx, 7, role.ID))
	// Assigning twice stays a single membership.
	require.NoError(t, service.AssignRole(ctx, 7, role.ID))

	roles, err := service.SubjectRoles(ctx, 7)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "viewer", roles[0].Name)

	require.NoError(t, service.RemoveRole(ctx, 7, role.ID))
	roles, err = service.SubjectRoles(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestAssignRoleUnknownRole(t *testing.T) {
	service := NewService(newMockStore())
	err := service.AssignRole(context.Background(), 7, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGrantRevokeVisibleThroughResolver(t *testing.T) {
	store := newMockStore()
	service := NewService(store)
	resolver := NewResolver(store)
	ctx := context.Background()

	role, err := service.CreateRole(ctx, "operator", "")
	require.NoError(t, err)
	perm, err := service.EnsurePermission(ctx, "devices.update", "")
	require.NoError(t, err)
	require.NoError(t, service.SetRolePermissions(ctx, role.ID, []int64{perm.ID}))
	require.NoError(t, service.AssignRole(ctx, 7, role.ID))

	roles, err := resolver.ResolveRoles(ctx, 7)
	require.NoError(t, err)
	perms, err := resolver.Aggregate(ctx, roles)
	require.NoError(t, err)
	assert.Equal(t, []string{"devices.update"}, perms)

	// Empty out the role's grants; the next aggregation must reflect it.
	require.NoError(t, service.SetRolePermissions(ctx, role.ID, nil))
	perms, err = resolver.Aggregate(ctx, roles)
	require.NoError(t, err)
	assert.Empty(t, perms)
}
