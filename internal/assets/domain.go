package assets

import "time"

// Device status values.
const (
	StatusAvailable = "available"
	StatusAssigned  = "assigned"
	StatusRetired   = "retired"
)

// Device represents a tracked hardware asset.
type Device struct {
	ID           int64
	AssetTag     string
	Name         string
	Category     string
	SerialNumber string
	Status       string
	AssignedTo   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
