package shared

// Core platform permissions.
const (
	PermUsersRead        = "users.read"
	PermUsersManageRoles = "users.manage_roles"

	PermRolesRead   = "roles.read"
	PermRolesCreate = "roles.create"
	PermRolesUpdate = "roles.update"
	PermRolesDelete = "roles.delete"
	PermRolesGrant  = "roles.grant"

	PermPermissionsRead = "permissions.read"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersRead,
		PermUsersManageRoles,
		PermRolesRead,
		PermRolesCreate,
		PermRolesUpdate,
		PermRolesDelete,
		PermRolesGrant,
		PermPermissionsRead,
	}
}
