package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"single day", date(2025, 10, 1), date(2025, 10, 2), 1},
		{"one week", date(2025, 10, 1), date(2025, 10, 8), 7},
		{"partial day rounds up", date(2025, 10, 1), date(2025, 10, 2).Add(6 * time.Hour), 2},
		{"zero range", date(2025, 10, 1), date(2025, 10, 1), 0},
		{"inverted range", date(2025, 10, 2), date(2025, 10, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RentalDays(tt.start, tt.end))
		})
	}
}

func TestBooking_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{StatusOpen, StatusConfirmed, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusCompleted, StatusClosed, true},

		// Перепрыгивание через статус запрещено
		{StatusOpen, StatusInProgress, false},
		{StatusConfirmed, StatusCompleted, false},
		{StatusOpen, StatusClosed, false},

		// Движение назад запрещено
		{StatusConfirmed, StatusOpen, false},
		{StatusCompleted, StatusInProgress, false},

		// Отмена только из open/confirmed
		{StatusOpen, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusClosed, StatusCancelled, false},

		// Терминальные статусы
		{StatusClosed, StatusOpen, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			b := &Booking{Status: tt.from}
			assert.Equal(t, tt.want, b.CanTransitionTo(tt.to))
		})
	}
}

func TestBooking_IsActive(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusOpen}).IsActive())
	assert.True(t, (&Booking{Status: StatusInProgress}).IsActive())
	assert.True(t, (&Booking{Status: StatusCompleted}).IsActive())
	assert.False(t, (&Booking{Status: StatusCancelled}).IsActive())
	assert.False(t, (&Booking{Status: StatusClosed}).IsActive())
}

func TestBooking_IsOverdue(t *testing.T) {
	now := date(2025, 10, 10)
	b := &Booking{
		Status:    StatusInProgress,
		StartDate: date(2025, 10, 1),
		EndDate:   date(2025, 10, 5),
	}
	assert.True(t, b.IsOverdue(now))

	b.Status = StatusClosed
	assert.False(t, b.IsOverdue(now))

	b.Status = StatusOpen
	b.EndDate = date(2025, 10, 15)
	assert.False(t, b.IsOverdue(now))
}
