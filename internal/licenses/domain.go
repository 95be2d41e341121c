package licenses

import "time"

// License represents a software license entitlement.
type License struct {
	ID        int64
	Name      string
	Vendor    string
	Seats     int
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
