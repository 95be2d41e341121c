package rbac

import "context"

// Store is the read-only storage contract the authorization pipeline
// depends on. Implementations must reflect the current assignment state at
// call time; consistency of just-revoked grants is the storage layer's
// responsibility.
type Store interface {
	RolesForSubject(ctx context.Context, subjectID int64) ([]Role, error)
	PermissionsForRole(ctx context.Context, roleID int64) ([]Permission, error)
}

// AdminStore extends Store with the administrative operations that mutate
// the catalog and assignments. Mutations are serialized by the storage
// layer's transactional guarantees, not by the authorization core.
type AdminStore interface {
	Store
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermission(ctx context.Context, name, module, action, description string) (Permission, error)
	ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	AssignRole(ctx context.Context, subjectID, roleID int64) error
	RemoveRole(ctx context.Context, subjectID, roleID int64) error
}
