package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
)

// Service сервис жизненного цикла бронирований
type Service struct {
	bookingRepo  BookingRepository
	vehicleRepo  VehicleRepository
	loyaltySvc   LoyaltyService
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	vehicleRepo VehicleRepository,
	loyaltySvc LoyaltyService,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		vehicleRepo:  vehicleRepo,
		loyaltySvc:   loyaltySvc,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// GetByID получает бронирование по ID вместе со строками услуг
// Пользователь может видеть только свои бронирования
// Язык влияет только на подпись статуса в ответе
func (s *Service) GetByID(ctx context.Context, id int64, userID int64, lang domain.Language) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if booking.UserID != userID {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, ErrAccessDenied
	}

	lines, err := s.bookingRepo.GetLines(ctx, id)
	if err != nil {
		s.logger.Error("GetByID: failed to fetch lines for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - fetch lines: %v", ErrInternal, err)
	}

	return models.FromDomainBooking(booking, lines, lang), nil
}

// GetUserBookings получает историю бронирований пользователя
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, ErrInvalidStatus
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, req.UserID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings, req.Language), nil
}

// Cancel отменяет бронирование
// Отменить может только владелец, только из статусов open/confirmed
// и только до начала окна аренды
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) error {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", bookingID, req.UserID)

	if len([]rune(req.CancellationReason)) > domain.MaxCancellationReasonLength {
		s.logger.Warn("Cancel: cancellation reason too long for booking id=%d", bookingID)
		return fmt.Errorf("%w: Cancel - cancellation reason exceeds %d characters",
			ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("Cancel: booking id=%d not found", bookingID)
			return ErrBookingNotFound
		}
		s.logger.Error("Cancel: repository error for booking id=%d: %v", bookingID, err)
		return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
	}

	if booking.UserID != req.UserID {
		s.logger.Warn("Cancel: access denied for user=%d to cancel booking id=%d", req.UserID, bookingID)
		return ErrAccessDenied
	}

	if !booking.CanBeCancelled() {
		s.logger.Warn("Cancel: booking id=%d cannot be cancelled, status=%s", bookingID, booking.Status)
		return ErrCannotCancel
	}

	// Независимо от статуса: после начала аренды отмена невозможна
	if now := s.timeProvider.Now(); !now.Before(booking.StartDate) {
		s.logger.Warn("Cancel: booking id=%d rental window already started at %s",
			bookingID, booking.StartDate.Format(domain.DateFormat))
		return ErrRentalAlreadyStarted
	}

	if err := s.bookingRepo.Cancel(ctx, bookingID, req.CancellationReason); err != nil {
		if errors.Is(err, bookingRepo.ErrCannotCancel) {
			// Статус изменился между проверкой и обновлением
			s.logger.Warn("Cancel: booking id=%d lost cancellation race", bookingID)
			return ErrCannotCancel
		}
		s.logger.Error("Cancel: repository error for booking id=%d: %v", bookingID, err)
		return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%d", bookingID)
	return nil
}

// UpdateStatus переводит бронирование в следующий статус (действие персонала)
// Переходы только вперед и только на один шаг; при переводе в completed
// начисляются бонусные баллы (идемпотентно по бронированию)
func (s *Service) UpdateStatus(ctx context.Context, bookingID int64, req *models.UpdateStatusRequest) error {
	s.logger.Info("UpdateStatus: updating booking id=%d to status=%s by user=%d",
		bookingID, req.Status, req.UserID)

	newStatus, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for booking id=%d", req.Status, bookingID)
		return ErrInvalidStatus
	}

	// Отмена идёт только через Cancel: там проверяются дата начала аренды
	// и фиксируются причина и время отмены
	if newStatus == domain.StatusCancelled {
		s.logger.Warn("UpdateStatus: cancellation via status update rejected for booking id=%d", bookingID)
		return ErrInvalidTransition
	}

	var updated *domain.Booking

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: UpdateStatus - repository error: %v", ErrInternal, err)
		}

		if booking.UserID != req.UserID {
			s.logger.Warn("UpdateStatus: access denied for user=%d to booking id=%d", req.UserID, bookingID)
			return ErrAccessDenied
		}

		if !booking.CanTransitionTo(newStatus) {
			s.logger.Warn("UpdateStatus: invalid transition %s -> %s for booking id=%d",
				booking.Status, newStatus, bookingID)
			return ErrInvalidTransition
		}

		if err := s.bookingRepo.UpdateStatus(txCtx, bookingID, booking.Status, newStatus); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				// Статус изменился конкурентно: переход уже не из booking.Status
				return ErrInvalidTransition
			}
			return fmt.Errorf("%w: UpdateStatus - repository error: %v", ErrInternal, err)
		}

		// Флаг автомобиля меняется в той же транзакции, что и бронирование
		if err := s.syncVehicleFlag(txCtx, booking, newStatus); err != nil {
			return err
		}

		updated = booking
		return nil
	})
	if err != nil {
		return err
	}

	// Начисление баллов за завершенную аренду
	// Идемпотентно по (пользователь, бронирование): повторное начисление
	// после сбоя безопасно, поэтому ошибка не откатывает переход
	if newStatus == domain.StatusCompleted {
		if err := s.loyaltySvc.AwardForBooking(ctx, updated.UserID, updated.FinalAmount, bookingID); err != nil {
			s.logger.Error("UpdateStatus: failed to award points for booking id=%d: %v", bookingID, err)
		}
	}

	s.logger.Info("UpdateStatus: successfully updated booking id=%d to status=%s", bookingID, newStatus)
	return nil
}

// CleanupSweep закрывает бронирования с истекшим сроком аренды
// Вызывается внешним планировщиком; каждая запись обрабатывается в своей
// транзакции - ошибка одной записи не прерывает остальные
func (s *Service) CleanupSweep(ctx context.Context) (*models.CleanupReport, error) {
	now := s.timeProvider.Now()

	ids, err := s.bookingRepo.ListOverdueIDs(ctx, now)
	if err != nil {
		s.logger.Error("CleanupSweep: failed to list overdue bookings: %v", err)
		return nil, fmt.Errorf("%w: CleanupSweep - list overdue: %v", ErrInternal, err)
	}

	report := &models.CleanupReport{}
	if len(ids) == 0 {
		return report, nil
	}

	s.logger.Info("CleanupSweep: found %d overdue bookings", len(ids))

	for _, id := range ids {
		closed, err := s.closeOverdueBooking(ctx, id, now)
		if err != nil {
			s.logger.Error("CleanupSweep: failed to close booking id=%d: %v", id, err)
			report.Failures = append(report.Failures, models.SweepFailure{
				BookingID: id,
				Error:     err.Error(),
			})
			continue
		}
		if closed {
			report.Closed++
		} else {
			report.Skipped++
		}
	}

	s.logger.Info("CleanupSweep: closed=%d skipped=%d failed=%d",
		report.Closed, report.Skipped, len(report.Failures))
	return report, nil
}

// closeOverdueBooking закрывает одно просроченное бронирование
// Возвращает false, если бронирование уже закрыто конкурентным прогоном
func (s *Service) closeOverdueBooking(ctx context.Context, id int64, now time.Time) (bool, error) {
	var closed bool

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				// Удалено между выборкой и обработкой - пропускаем
				return nil
			}
			return fmt.Errorf("%w: closeOverdueBooking - repository error: %v", ErrInternal, err)
		}

		ok, err := s.bookingRepo.Close(txCtx, id, now)
		if err != nil {
			return fmt.Errorf("%w: closeOverdueBooking - close booking: %v", ErrInternal, err)
		}
		closed = ok

		if !ok {
			// Уже закрыто или отменено конкурентным прогоном - no-op
			return nil
		}

		return s.releaseVehicleIfIdle(txCtx, booking.VehicleID, id)
	})

	return closed, err
}

// syncVehicleFlag обновляет денормализованный флаг автомобиля
// в той же транзакции, что и изменение бронирования
func (s *Service) syncVehicleFlag(ctx context.Context, booking *domain.Booking, newStatus domain.BookingStatus) error {
	switch newStatus {
	case domain.StatusInProgress:
		// Автомобиль выдан - помечаем занятым
		if err := s.vehicleRepo.UpdateStatus(ctx, booking.VehicleID, domain.VehicleRented); err != nil {
			return fmt.Errorf("%w: syncVehicleFlag - mark rented: %v", ErrInternal, err)
		}
	case domain.StatusClosed:
		return s.releaseVehicleIfIdle(ctx, booking.VehicleID, booking.ID)
	}
	return nil
}

// releaseVehicleIfIdle возвращает автомобилю флаг available, если у него
// не осталось других активных бронирований
func (s *Service) releaseVehicleIfIdle(ctx context.Context, vehicleID, excludeBookingID int64) error {
	active, err := s.bookingRepo.CountActiveByVehicle(ctx, vehicleID, &excludeBookingID)
	if err != nil {
		return fmt.Errorf("%w: releaseVehicleIfIdle - count active: %v", ErrInternal, err)
	}
	if active > 0 {
		return nil
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("%w: releaseVehicleIfIdle - get vehicle: %v", ErrInternal, err)
	}

	if vehicle.Status != domain.VehicleRented {
		// Недоступность по другой причине (например, обслуживание) не трогаем
		return nil
	}

	if err := s.vehicleRepo.UpdateStatus(ctx, vehicleID, domain.VehicleAvailable); err != nil {
		return fmt.Errorf("%w: releaseVehicleIfIdle - restore flag: %v", ErrInternal, err)
	}

	s.logger.Info("releaseVehicleIfIdle: vehicle id=%d returned to available", vehicleID)
	return nil
}
