package domain

import "time"

// Branch is a physical site grouping users and sensors.
type Branch struct {
	ID        uint
	Name      string
	City      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
