// Package availability отвечает на вопрос, свободен ли автомобиль
// в заданном диапазоне дат
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	vehicleRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/vehicle"
)

// Service сервис проверки доступности автомобилей
type Service struct {
	vehicleRepo VehicleRepository
	bookingRepo BookingRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса доступности
func NewService(vehicleRepo VehicleRepository, bookingRepo BookingRepository, logger Logger) *Service {
	return &Service{
		vehicleRepo: vehicleRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// IsAvailable проверяет, свободен ли автомобиль в диапазоне [start, end)
//
// Автомобиль недоступен, если его флаг статуса не "available" либо
// существует не отменённое бронирование, пересекающееся с диапазоном.
// Границы пересечения включающие: бронирование, заканчивающееся в день
// start, считается конфликтом (правило буфера между арендами)
//
// excludeBookingID исключает бронирование из проверки - нужно при
// перепроверке бронирования против всех остальных
//
// При вызове внутри транзакции (см. pkg/txmanager) проверка и последующая
// вставка образуют атомарную операцию - это единственная защита от
// двойного бронирования
func (s *Service) IsAvailable(ctx context.Context, vehicleID int64, start, end time.Time, excludeBookingID *int64) (bool, error) {
	if !end.After(start) {
		return false, ErrInvalidDateRange
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, vehicleRepo.ErrVehicleNotFound) {
			s.logger.Warn("IsAvailable: vehicle id=%d not found", vehicleID)
			return false, ErrVehicleNotFound
		}
		s.logger.Error("IsAvailable: repository error for vehicle id=%d: %v", vehicleID, err)
		return false, fmt.Errorf("%w: IsAvailable - repository error: %v", ErrInternal, err)
	}

	if !vehicle.IsAvailableForRent() {
		s.logger.Info("IsAvailable: vehicle id=%d flagged %s, not available", vehicleID, vehicle.Status)
		return false, nil
	}

	count, err := s.bookingRepo.CountOverlapping(ctx, vehicleID, start, end, excludeBookingID)
	if err != nil {
		s.logger.Error("IsAvailable: failed to count overlapping bookings for vehicle id=%d: %v", vehicleID, err)
		return false, fmt.Errorf("%w: IsAvailable - count overlapping: %v", ErrInternal, err)
	}

	if count > 0 {
		s.logger.Info("IsAvailable: vehicle id=%d has %d conflicting bookings in [%s, %s)",
			vehicleID, count, start.Format("2006-01-02"), end.Format("2006-01-02"))
		return false, nil
	}

	return true, nil
}
