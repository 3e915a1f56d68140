package domain

import "time"

// ExtraService is a catalog extra (GPS, child seat, additional driver)
// priced with the same three billing tiers as vehicles
type ExtraService struct {
	ID          int64
	Name        string
	DailyRate   float64
	WeeklyRate  float64
	MonthlyRate float64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
