package loyalty

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// LedgerRepository интерфейс репозитория журнала бонусных баллов
type LedgerRepository interface {
	Insert(ctx context.Context, t *domain.LoyaltyTransaction) (*domain.LoyaltyTransaction, error)
	HasEarnedForBooking(ctx context.Context, userID, bookingID int64) (bool, error)
	GetByUserID(ctx context.Context, userID int64) ([]*domain.LoyaltyTransaction, error)
	AvailableBalance(ctx context.Context, userID int64) (int64, error)
	ListExpirable(ctx context.Context, now time.Time) ([]*domain.LoyaltyTransaction, error)
	MarkExpired(ctx context.Context, ids []int64) (int64, error)
	RecomputeSummary(ctx context.Context, userID int64) (*domain.PointsSummary, error)
	GetSummary(ctx context.Context, userID int64) (*domain.PointsSummary, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
