package authn

import "time"

// Subject represents an authenticated user account.
type Subject struct {
	ID           int64
	Username     string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
