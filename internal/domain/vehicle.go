package domain

import "time"

// VehicleStatus represents the denormalized availability flag of a vehicle
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleRented      VehicleStatus = "rented"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// Vehicle is a catalog vehicle with its three-tier rental rates
type Vehicle struct {
	ID           int64
	Brand        string
	Model        string
	LicensePlate string
	Status       VehicleStatus

	DailyRate   float64
	WeeklyRate  float64
	MonthlyRate float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAvailableForRent returns true if the availability flag permits new rentals
// Overlap with existing bookings is checked separately
func (v *Vehicle) IsAvailableForRent() bool {
	return v.Status == VehicleAvailable
}
