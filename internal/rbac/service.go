package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/assetgrid/assetgrid/internal/shared"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Service orchestrates administrative RBAC operations. The authorization
// pipeline itself only reads through Resolver; everything here is invoked
// by permission-gated admin endpoints.
type Service struct {
	store AdminStore
}

// NewService constructs a Service backed by the provided store.
func NewService(store AdminStore) *Service {
	return &Service{store: store}
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return Role{}, mapNotFound(err)
	}
	return role, nil
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.store.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	role, err := s.store.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, mapNotFound(err)
	}
	return role, nil
}

// DeleteRole removes a role by ID. Returns ErrNotFound if nothing was deleted.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return mapNotFound(s.store.DeleteRole(ctx, id))
}

// ListPermissions returns the permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

// EnsurePermission upserts a catalog entry. The name is expected to be
// "module.action"; the module and action columns are derived from it.
func (s *Service) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Permission{}, errors.New("rbac: permission name required")
	}
	module, action := splitPermissionName(name)
	return s.store.EnsurePermission(ctx, name, module, action, strings.TrimSpace(description))
}

// SetRolePermissions replaces the grants for a role.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		return mapNotFound(err)
	}
	return s.store.ReplaceRolePermissions(ctx, roleID, permissionIDs)
}

// RolePermissions lists the grants of one role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		return nil, mapNotFound(err)
	}
	return s.store.PermissionsForRole(ctx, roleID)
}

// SubjectRoles lists the roles currently assigned to a subject,
// deduplicated by role ID.
func (s *Service) SubjectRoles(ctx context.Context, subjectID int64) ([]Role, error) {
	return NewResolver(s.store).ResolveRoles(ctx, subjectID)
}

// AssignRole assigns a role to the given subject.
func (s *Service) AssignRole(ctx context.Context, subjectID, roleID int64) error {
	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		return mapNotFound(err)
	}
	return s.store.AssignRole(ctx, subjectID, roleID)
}

// RemoveRole removes a role from a subject.
func (s *Service) RemoveRole(ctx context.Context, subjectID, roleID int64) error {
	return s.store.RemoveRole(ctx, subjectID, roleID)
}

func splitPermissionName(name string) (module, action string) {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

func mapNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
