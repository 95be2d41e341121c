package rbac

import "time"

// Role represents a high-level permission grouping. Roles are flat; there
// is no inheritance between them.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability, named "module.action".
type Permission struct {
	ID          int64
	Name        string
	Module      string
	Action      string
	Description string
}
