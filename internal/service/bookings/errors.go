package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrAccessDenied возвращается, когда пользователь не владелец бронирования
	ErrAccessDenied = errors.New("access denied")

	// ErrCannotCancel возвращается, когда статус не допускает отмену
	ErrCannotCancel = errors.New("booking cannot be cancelled")

	// ErrRentalAlreadyStarted возвращается при попытке отмены после начала аренды
	// После начала окна аренды отмена невозможна независимо от статуса
	ErrRentalAlreadyStarted = errors.New("rental window has already started")

	// ErrInvalidTransition возвращается при недопустимом переходе статуса
	// Жизненный цикл однонаправленный, статусы не переиспользуются
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidStatus возвращается при неизвестном статусе во входных данных
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
