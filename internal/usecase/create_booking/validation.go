package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.VehicleID <= 0 {
		return fmt.Errorf("%w: vehicleID must be positive", ErrInvalidInput)
	}

	if req.PickupLocationID <= 0 {
		return fmt.Errorf("%w: pickupLocationID must be positive", ErrInvalidInput)
	}

	if req.ReturnLocationID <= 0 {
		return fmt.Errorf("%w: returnLocationID must be positive", ErrInvalidInput)
	}

	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return fmt.Errorf("%w: startDate and endDate are required", ErrInvalidInput)
	}

	seen := make(map[int64]struct{}, len(req.Extras))
	for _, extra := range req.Extras {
		if extra.ExtraID <= 0 {
			return fmt.Errorf("%w: extraID must be positive", ErrInvalidInput)
		}
		if extra.Quantity <= 0 || extra.Quantity > domain.MaxExtraQuantity {
			return fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidInput, domain.MaxExtraQuantity)
		}
		if _, ok := seen[extra.ExtraID]; ok {
			return fmt.Errorf("%w: duplicate extra id=%d", ErrInvalidInput, extra.ExtraID)
		}
		seen[extra.ExtraID] = struct{}{}
	}

	return nil
}

// validateDates проверяет диапазон дат аренды
func validateDates(start, end, now time.Time) error {
	if !end.After(start) {
		return ErrInvalidDateRange
	}

	if isDateInPast(start, now) {
		return ErrDateInPast
	}

	if domain.RentalDays(start, end) > domain.MaxRentalDays {
		return fmt.Errorf("%w: maximum rental period is %d days", ErrRentalTooLong, domain.MaxRentalDays)
	}

	return nil
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	// Обнуляем время, чтобы сравнивать только даты
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return dateOnly.Before(nowOnly)
}
