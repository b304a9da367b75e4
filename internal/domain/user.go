package domain

import "time"

// User is a security guard or administrator assigned to a branch.
// Credential and profile fields live outside this service.
type User struct {
	ID        uint
	Name      string
	BranchID  uint
	CreatedAt time.Time
	UpdatedAt time.Time

	DeviceTokens []DeviceToken
}
