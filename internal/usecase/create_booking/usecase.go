package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	extraRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/extra"
	locationRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/location"
	vehicleRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/vehicle"
	"github.com/m04kA/SMC-RentalService/internal/service/rates"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	vehicleRepo  VehicleRepository
	locationRepo LocationRepository
	extraRepo    ExtraRepository
	availability AvailabilityChecker
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	vehicleRepo VehicleRepository,
	locationRepo LocationRepository,
	extraRepo ExtraRepository,
	availability AvailabilityChecker,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		vehicleRepo:  vehicleRepo,
		locationRepo: locationRepo,
		extraRepo:    extraRepo,
		availability: availability,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
// Проверка доступности и вставка выполняются в одной сериализуемой
// транзакции: строка автомобиля блокируется (FOR UPDATE), поэтому два
// конкурирующих бронирования одного автомобиля не пройдут оба
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, vehicle=%d, dates=[%s, %s)",
		req.UserID, req.VehicleID, req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Валидация диапазона дат
	now := uc.timeProvider.Now()
	if err := validateDates(req.StartDate, req.EndDate, now); err != nil {
		uc.logger.Warn("CreateBooking: date validation failed: %v", err)
		return nil, err
	}

	totalDays := domain.RentalDays(req.StartDate, req.EndDate)
	lang := req.Language
	if lang == "" {
		lang = domain.DefaultLanguage
	}

	var (
		result          *domain.Booking
		resultLines     []*domain.BookingLine
		rentalBreakdown *domain.RateBreakdown
	)

	// 3. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Получаем автомобиль с блокировкой строки
		vehicle, err := uc.vehicleRepo.GetByID(txCtx, req.VehicleID)
		if err != nil {
			if errors.Is(err, vehicleRepo.ErrVehicleNotFound) {
				uc.logger.Warn("CreateBooking: vehicle id=%d not found", req.VehicleID)
				return ErrVehicleNotFound
			}
			uc.logger.Error("CreateBooking: failed to get vehicle id=%d: %v", req.VehicleID, err)
			return fmt.Errorf("%w: failed to get vehicle: %v", ErrInternal, err)
		}

		// 3.2. Проверяем доступность: флаг автомобиля и пересечения дат
		available, err := uc.availability.IsAvailable(txCtx, req.VehicleID, req.StartDate, req.EndDate, nil)
		if err != nil {
			uc.logger.Error("CreateBooking: availability check failed for vehicle id=%d: %v", req.VehicleID, err)
			return fmt.Errorf("%w: availability check failed: %v", ErrInternal, err)
		}
		if !available {
			uc.logger.Warn("CreateBooking: vehicle id=%d not available in [%s, %s)",
				req.VehicleID, req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat))
			return ErrVehicleUnavailable
		}

		// 3.3. Проверяем точки выдачи и возврата
		if err := uc.checkLocation(txCtx, req.PickupLocationID, ErrPickupLocationNotFound, ErrPickupLocationInactive); err != nil {
			return err
		}
		if err := uc.checkLocation(txCtx, req.ReturnLocationID, ErrReturnLocationNotFound, ErrReturnLocationInactive); err != nil {
			return err
		}

		// 3.4. Раскладываем стоимость аренды на тарифные периоды
		rentalBreakdown, err = rates.ComputeOptimalCost(totalDays, vehicle.DailyRate, vehicle.WeeklyRate, vehicle.MonthlyRate, lang)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to compute rental cost: %v", err)
			return fmt.Errorf("%w: failed to compute rental cost: %v", ErrInternal, err)
		}

		// 3.5. Собираем строки дополнительных услуг с фиксацией цен
		lines, extrasCost, err := uc.buildLines(txCtx, req.Extras, totalDays, lang)
		if err != nil {
			return err
		}

		// 3.6. Создаем бронирование
		booking := &domain.Booking{
			Number:           generateBookingNumber(),
			UserID:           req.UserID,
			VehicleID:        req.VehicleID,
			PickupLocationID: req.PickupLocationID,
			ReturnLocationID: req.ReturnLocationID,
			StartDate:        req.StartDate,
			EndDate:          req.EndDate,
			RentalCost:       rentalBreakdown.TotalCost,
			ExtrasCost:       extrasCost,
			Discount:         0,
			FinalAmount:      rentalBreakdown.TotalCost + extrasCost,
			Status:           domain.StatusOpen,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking, lines)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		resultLines = lines
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d number=%s total=%.2f",
		result.ID, result.Number, result.FinalAmount)

	resp := &Response{
		ID:               result.ID,
		Number:           result.Number,
		UserID:           result.UserID,
		VehicleID:        result.VehicleID,
		PickupLocationID: result.PickupLocationID,
		ReturnLocationID: result.ReturnLocationID,
		StartDate:        result.StartDate.Format(domain.DateFormat),
		EndDate:          result.EndDate.Format(domain.DateFormat),
		Days:             totalDays,
		RentalCost:       result.RentalCost,
		ExtrasCost:       result.ExtrasCost,
		Discount:         result.Discount,
		FinalAmount:      result.FinalAmount,
		Status:           string(result.Status),
		StatusLabel:      result.Status.Label(lang),
		RentalBreakdown:  fromDomainBreakdown(rentalBreakdown),
		CreatedAt:        result.CreatedAt,
		UpdatedAt:        result.UpdatedAt,
	}

	for _, line := range resultLines {
		resp.Lines = append(resp.Lines, LineResponse{
			ExtraID:    line.ExtraID,
			ExtraName:  line.ExtraName,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
		})
	}

	return resp, nil
}

// checkLocation проверяет, что точка существует и активна
func (uc *UseCase) checkLocation(ctx context.Context, id int64, notFound, inactive error) error {
	location, err := uc.locationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, locationRepo.ErrLocationNotFound) {
			uc.logger.Warn("CreateBooking: location id=%d not found", id)
			return notFound
		}
		uc.logger.Error("CreateBooking: failed to get location id=%d: %v", id, err)
		return fmt.Errorf("%w: failed to get location: %v", ErrInternal, err)
	}

	if !location.IsActive {
		uc.logger.Warn("CreateBooking: location id=%d is inactive", id)
		return inactive
	}

	return nil
}

// buildLines собирает строки дополнительных услуг
// Цена каждой услуги раскладывается по её собственным тарифам на тот же
// срок и фиксируется в строке: изменения каталога не влияют на
// существующие бронирования
func (uc *UseCase) buildLines(ctx context.Context, extras []ExtraRequest, totalDays int, lang domain.Language) ([]*domain.BookingLine, float64, error) {
	if len(extras) == 0 {
		return nil, 0, nil
	}

	lines := make([]*domain.BookingLine, 0, len(extras))
	var extrasCost float64

	for _, item := range extras {
		extra, err := uc.extraRepo.GetByID(ctx, item.ExtraID)
		if err != nil {
			if errors.Is(err, extraRepo.ErrExtraNotFound) {
				uc.logger.Warn("CreateBooking: extra id=%d not found", item.ExtraID)
				return nil, 0, ErrExtraNotFound
			}
			uc.logger.Error("CreateBooking: failed to get extra id=%d: %v", item.ExtraID, err)
			return nil, 0, fmt.Errorf("%w: failed to get extra: %v", ErrInternal, err)
		}

		if !extra.IsActive {
			uc.logger.Warn("CreateBooking: extra id=%d is inactive", item.ExtraID)
			return nil, 0, ErrExtraInactive
		}

		breakdown, err := rates.ComputeOptimalCost(totalDays, extra.DailyRate, extra.WeeklyRate, extra.MonthlyRate, lang)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to compute cost for extra id=%d: %v", item.ExtraID, err)
			return nil, 0, fmt.Errorf("%w: failed to compute extra cost: %v", ErrInternal, err)
		}

		totalPrice := breakdown.TotalCost * float64(item.Quantity)
		lines = append(lines, &domain.BookingLine{
			ExtraID:    extra.ID,
			ExtraName:  extra.Name,
			Quantity:   item.Quantity,
			UnitPrice:  breakdown.TotalCost,
			TotalPrice: totalPrice,
		})
		extrasCost += totalPrice
	}

	return lines, extrasCost, nil
}

// generateBookingNumber генерирует человекочитаемый номер, например RNT-1A2B3C4D
func generateBookingNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%s", domain.BookingNumberPrefix, suffix)
}
