package create_booking

import "errors"

var (
	// ErrVehicleNotFound возвращается, когда автомобиль не найден
	ErrVehicleNotFound = errors.New("create_booking: vehicle not found")

	// ErrVehicleUnavailable возвращается, когда автомобиль занят в запрошенные даты
	ErrVehicleUnavailable = errors.New("create_booking: vehicle is not available for these dates")

	// ErrPickupLocationNotFound возвращается, когда точка выдачи не найдена
	ErrPickupLocationNotFound = errors.New("create_booking: pickup location not found")

	// ErrPickupLocationInactive возвращается, когда точка выдачи закрыта
	ErrPickupLocationInactive = errors.New("create_booking: pickup location is inactive")

	// ErrReturnLocationNotFound возвращается, когда точка возврата не найдена
	ErrReturnLocationNotFound = errors.New("create_booking: return location not found")

	// ErrReturnLocationInactive возвращается, когда точка возврата закрыта
	ErrReturnLocationInactive = errors.New("create_booking: return location is inactive")

	// ErrExtraNotFound возвращается, когда дополнительная услуга не найдена
	ErrExtraNotFound = errors.New("create_booking: extra service not found")

	// ErrExtraInactive возвращается, когда дополнительная услуга отключена
	ErrExtraInactive = errors.New("create_booking: extra service is inactive")

	// ErrInvalidDateRange возвращается при некорректном диапазоне дат
	ErrInvalidDateRange = errors.New("create_booking: invalid date range")

	// ErrDateInPast возвращается, когда дата начала аренды в прошлом
	ErrDateInPast = errors.New("create_booking: start date is in the past")

	// ErrRentalTooLong возвращается, когда срок аренды превышает максимум
	ErrRentalTooLong = errors.New("create_booking: rental period is too long")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
