package domain

import (
	"math"
	"time"
)

// BookingStatus represents the status of a rental booking
type BookingStatus string

const (
	StatusOpen       BookingStatus = "open"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusClosed     BookingStatus = "closed"
	StatusCancelled  BookingStatus = "cancelled"
)

// forwardTransitions описывает допустимые переходы статусов
// Жизненный цикл строго однонаправленный, статусы не переиспользуются
var forwardTransitions = map[BookingStatus]BookingStatus{
	StatusOpen:       StatusConfirmed,
	StatusConfirmed:  StatusInProgress,
	StatusInProgress: StatusCompleted,
	StatusCompleted:  StatusClosed,
}

// Booking represents a vehicle rental in the system
type Booking struct {
	ID               int64
	Number           string // unique human-readable reference, e.g. RNT-1A2B3C4D
	UserID           int64
	VehicleID        int64
	PickupLocationID int64
	ReturnLocationID int64
	StartDate        time.Time // inclusive
	EndDate          time.Time // exclusive, EndDate > StartDate

	RentalCost  float64
	ExtrasCost  float64
	Discount    float64
	FinalAmount float64 // RentalCost + ExtrasCost - Discount

	Status BookingStatus

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Days returns the number of billable rental days for the [StartDate, EndDate) range
func (b *Booking) Days() int {
	return RentalDays(b.StartDate, b.EndDate)
}

// IsActive returns true if the booking still occupies the vehicle
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled && b.Status != StatusClosed
}

// CanBeCancelled returns true if the booking status allows cancellation
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusOpen || b.Status == StatusConfirmed
}

// CanTransitionTo returns true if the booking may advance to the given status
// Forward transitions are single-step; cancellation is allowed only from
// open/confirmed and is terminal
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	if next == StatusCancelled {
		return b.CanBeCancelled()
	}
	return forwardTransitions[b.Status] == next
}

// IsOverdue returns true if the rental window has ended but the booking
// has not reached a terminal state yet
func (b *Booking) IsOverdue(now time.Time) bool {
	return b.IsActive() && now.After(b.EndDate)
}

// BookingLine is an extra service attached to a booking
// Prices are frozen at creation time and never recomputed from the catalog
type BookingLine struct {
	ID         int64
	BookingID  int64
	ExtraID    int64
	ExtraName  string
	Quantity   int
	UnitPrice  float64 // tiled cost of one unit over the booking's day count
	TotalPrice float64 // UnitPrice * Quantity
	CreatedAt  time.Time
}

// RentalDays converts a [start, end) range into a billable day count,
// rounding partial days up
func RentalDays(start, end time.Time) int {
	hours := end.Sub(start).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Ceil(hours / 24))
}
