package domain

import "time"

// Location is a pickup/return branch office
type Location struct {
	ID        int64
	Name      string
	City      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
