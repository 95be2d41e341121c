package shared

// Device inventory permissions.
const (
	PermDevicesRead   = "devices.read"
	PermDevicesCreate = "devices.create"
	PermDevicesUpdate = "devices.update"
	PermDevicesDelete = "devices.delete"
)

// License permissions.
const (
	PermLicensesRead = "licenses.read"
)

// AssetScopes lists all permissions guarding asset endpoints.
func AssetScopes() []string {
	return []string{
		PermDevicesRead,
		PermDevicesCreate,
		PermDevicesUpdate,
		PermDevicesDelete,
		PermLicensesRead,
	}
}
