package users

import "time"

// User represents a user account for management listings.
type User struct {
	ID        int64
	Username  string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
