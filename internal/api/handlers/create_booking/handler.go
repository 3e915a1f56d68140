package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody      = "некорректное тело запроса"
	msgInvalidDate             = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingUserID           = "отсутствует ID пользователя"
	msgVehicleNotFound         = "автомобиль не найден"
	msgVehicleUnavailable      = "автомобиль недоступен в выбранные даты"
	msgPickupLocationNotFound  = "точка выдачи не найдена"
	msgPickupLocationInactive  = "точка выдачи не работает"
	msgReturnLocationNotFound  = "точка возврата не найдена"
	msgReturnLocationInactive  = "точка возврата не работает"
	msgExtraNotFound           = "дополнительная услуга не найдена"
	msgExtraInactive           = "дополнительная услуга отключена"
	msgInvalidDateRange        = "некорректный диапазон дат"
	msgDateInPast              = "дата начала аренды в прошлом"
	msgRentalTooLong           = "срок аренды превышает допустимый максимум"
	msgInvalidInput            = "некорректные входные данные"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом дат)
	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrVehicleUnavailable):
			h.logger.Warn("POST /bookings - Vehicle unavailable: user_id=%d, vehicle_id=%d", userID, req.VehicleID)
			handlers.RespondConflict(w, msgVehicleUnavailable)

		case errors.Is(err, createBooking.ErrVehicleNotFound):
			h.logger.Warn("POST /bookings - Vehicle not found: vehicle_id=%d", req.VehicleID)
			handlers.RespondNotFound(w, msgVehicleNotFound)

		case errors.Is(err, createBooking.ErrPickupLocationNotFound):
			h.logger.Warn("POST /bookings - Pickup location not found: location_id=%d", req.PickupLocationID)
			handlers.RespondNotFound(w, msgPickupLocationNotFound)

		case errors.Is(err, createBooking.ErrReturnLocationNotFound):
			h.logger.Warn("POST /bookings - Return location not found: location_id=%d", req.ReturnLocationID)
			handlers.RespondNotFound(w, msgReturnLocationNotFound)

		case errors.Is(err, createBooking.ErrPickupLocationInactive):
			h.logger.Warn("POST /bookings - Pickup location inactive: location_id=%d", req.PickupLocationID)
			handlers.RespondBadRequest(w, msgPickupLocationInactive)

		case errors.Is(err, createBooking.ErrReturnLocationInactive):
			h.logger.Warn("POST /bookings - Return location inactive: location_id=%d", req.ReturnLocationID)
			handlers.RespondBadRequest(w, msgReturnLocationInactive)

		case errors.Is(err, createBooking.ErrExtraNotFound):
			h.logger.Warn("POST /bookings - Extra not found: user_id=%d", userID)
			handlers.RespondNotFound(w, msgExtraNotFound)

		case errors.Is(err, createBooking.ErrExtraInactive):
			h.logger.Warn("POST /bookings - Extra inactive: user_id=%d", userID)
			handlers.RespondBadRequest(w, msgExtraInactive)

		case errors.Is(err, createBooking.ErrInvalidDateRange):
			h.logger.Warn("POST /bookings - Invalid date range: user_id=%d", userID)
			handlers.RespondBadRequest(w, msgInvalidDateRange)

		case errors.Is(err, createBooking.ErrDateInPast):
			h.logger.Warn("POST /bookings - Start date in past: user_id=%d", userID)
			handlers.RespondBadRequest(w, msgDateInPast)

		case errors.Is(err, createBooking.ErrRentalTooLong):
			h.logger.Warn("POST /bookings - Rental too long: user_id=%d", userID)
			handlers.RespondBadRequest(w, msgRentalTooLong)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, vehicle_id=%d, error=%v",
				userID, req.VehicleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Формируем HTTP ответ
	response := FromUseCaseResponse(result)

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, number=%s, user_id=%d",
		result.ID, result.Number, userID)
	handlers.RespondJSON(w, http.StatusCreated, response)
}
