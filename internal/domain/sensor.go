package domain

import "time"

// Sensor is a detection device installed at a branch.
type Sensor struct {
	ID        uint
	Code      string
	BranchID  uint
	IsOn      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
