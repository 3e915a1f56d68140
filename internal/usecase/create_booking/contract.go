package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking, lines []*domain.BookingLine) (*domain.Booking, error)
}

// VehicleRepository интерфейс репозитория автомобилей
// Внутри транзакции GetByID блокирует строку (FOR UPDATE),
// сериализуя конкурирующие бронирования одного автомобиля
type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
}

// LocationRepository интерфейс репозитория точек выдачи/возврата
type LocationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Location, error)
}

// ExtraRepository интерфейс репозитория дополнительных услуг
type ExtraRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.ExtraService, error)
}

// AvailabilityChecker интерфейс проверки доступности автомобиля
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, vehicleID int64, start, end time.Time, excludeBookingID *int64) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
